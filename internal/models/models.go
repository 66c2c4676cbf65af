package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanWrite reports whether back-office write controls should be offered.
// The API enforces permissions on its own; this only hides controls.
func (r Role) CanWrite() bool {
	return r == RoleSuperAdmin
}

type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	RoleName        Role       `json:"roleName"`
	ProfileImageURL string     `json:"profileImageUrl,omitempty"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	IsPhoneVerified bool       `json:"isPhoneVerified"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type CartItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Product struct {
	ProductID       int64           `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductNameAr   string          `json:"productNameAr,omitempty"`
	Description     string          `json:"description,omitempty"`
	SKU             string          `json:"sku"`
	CategoryID      int64           `json:"categoryId"`
	ActualPrice     decimal.Decimal `json:"actualPrice"`
	OfferPercentage decimal.Decimal `json:"offerPercentage"`
	FinalPrice      decimal.Decimal `json:"finalPrice"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	IsActive        bool            `json:"isActive"`
	IsFeatured      bool            `json:"isFeatured"`
	Tags            []string        `json:"tags,omitempty"`
}

// CartItem builds a single-unit cart line at the server-computed final price.
func (p Product) CartItem() CartItem {
	return CartItem{
		ProductID: p.ProductID,
		Name:      p.ProductName,
		UnitPrice: p.FinalPrice,
		Quantity:  1,
		ImageURL:  p.ImageURL,
	}
}

type Category struct {
	CategoryID     int64  `json:"categoryId"`
	CategoryName   string `json:"categoryName"`
	CategoryNameAr string `json:"categoryNameAr,omitempty"`
	Description    string `json:"description,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	DisplayOrder   int    `json:"displayOrder"`
	IsActive       bool   `json:"isActive"`
	ProductCount   int    `json:"productCount"`
}

type Order struct {
	OrderID         int64           `json:"orderId"`
	OrderNumber     string          `json:"orderNumber"`
	Items           []OrderItem     `json:"items"`
	RecipientName   string          `json:"recipientName"`
	RecipientPhone  string          `json:"recipientPhone"`
	DeliveryAddress string          `json:"deliveryAddress"`
	DeliveryArea    string          `json:"deliveryArea,omitempty"`
	DeliveryStatus  DeliveryStatus  `json:"deliveryStatus"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// CanCancel reports whether the customer-facing cancel action applies.
func (o Order) CanCancel() bool {
	return o.DeliveryStatus.Cancellable()
}

type OrderItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Address struct {
	AddressID int64  `json:"addressId"`
	Label     string `json:"label,omitempty"`
	Area      string `json:"area"`
	Block     string `json:"block,omitempty"`
	Street    string `json:"street,omitempty"`
	Building  string `json:"building,omitempty"`
	Notes     string `json:"notes,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

type Review struct {
	ReviewID  int64     `json:"reviewId"`
	ProductID int64     `json:"productId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Payment struct {
	OrderID    int64           `json:"orderId"`
	Reference  string          `json:"ref,omitempty"`
	Status     PaymentStatus   `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	PaymentURL string          `json:"paymentUrl,omitempty"`
	Message    string          `json:"message,omitempty"`
}

type Dashboard struct {
	TotalOrders    int64           `json:"totalOrders"`
	PendingOrders  int64           `json:"pendingOrders"`
	TotalCustomers int64           `json:"totalCustomers"`
	TotalProducts  int64           `json:"totalProducts"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	RecentOrders   []Order         `json:"recentOrders,omitempty"`
}
