package handlers

import (
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"
)

type CartRequest struct {
	Items []cart.Line `json:"items"`
}

type CheckoutRequest struct {
	TableID int64       `json:"tableId"`
	Items   []cart.Line `json:"items"`
}

type CheckoutResponse struct {
	ID string `json:"id"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Role        string    `json:"role"`
}

type TableMenuResponse struct {
	Table   tables.Table `json:"table"`
	Catalog menu.Catalog `json:"catalog"`
}

type TableLinkResponse struct {
	TableID int64  `json:"tableId"`
	Number  int    `json:"number"`
	URL     string `json:"url"`
}

type MenuImageResponse struct {
	ItemID       int64    `json:"itemId"`
	ImageURL     string   `json:"imageUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Warnings     []string `json:"warnings"`
}
