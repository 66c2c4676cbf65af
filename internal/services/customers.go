package services

import (
	"context"

	"github.com/safar/flowerstore/internal/apiclient"
	"github.com/safar/flowerstore/internal/models"
)

type CustomerService struct {
	client *apiclient.Client
}

type ProfileUpdate struct {
	Name            string `json:"name,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type PasswordChange struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (s *CustomerService) Profile(ctx context.Context) (models.User, error) {
	return apiclient.Get[models.User](ctx, s.client, "/customers/profile", nil)
}

func (s *CustomerService) UpdateProfile(ctx context.Context, update ProfileUpdate) (models.User, error) {
	return apiclient.Put[models.User](ctx, s.client, "/customers/profile", update)
}

func (s *CustomerService) ChangePassword(ctx context.Context, change PasswordChange) error {
	_, err := apiclient.Put[struct{}](ctx, s.client, "/customers/change-password", change)
	return err
}

func (s *CustomerService) Addresses(ctx context.Context) ([]models.Address, error) {
	page, err := apiclient.Get[apiclient.Page[models.Address]](ctx, s.client, "/customers/addresses", nil)
	return page.Content, err
}

func (s *CustomerService) AddAddress(ctx context.Context, address models.Address) (models.Address, error) {
	return apiclient.Post[models.Address](ctx, s.client, "/customers/addresses", address)
}

func (s *CustomerService) DeleteAddress(ctx context.Context, id int64) error {
	return apiclient.Delete(ctx, s.client, idPath("/customers/addresses/%d", id))
}
