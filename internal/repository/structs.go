package repository

import (
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("not found")

// ErrVersionConflict is returned by conditional trip updates when the row
// version changed between read and write (a concurrent claim won).
var ErrVersionConflict = errors.New("version conflict")

type RequestStatus string

const (
	RequestStatusDraft           RequestStatus = "draft"
	RequestStatusOpen            RequestStatus = "open"
	RequestStatusMatched         RequestStatus = "matched"
	RequestStatusOnHold          RequestStatus = "on_hold"
	RequestStatusPurchasePending RequestStatus = "purchase_pending"
	RequestStatusPurchased       RequestStatus = "purchased"
	RequestStatusInTransit       RequestStatus = "in_transit"
	RequestStatusDelivered       RequestStatus = "delivered"
	RequestStatusCompleted       RequestStatus = "completed"
	RequestStatusDisputed        RequestStatus = "disputed"
	RequestStatusCancelled       RequestStatus = "cancelled"
)

type TripStatus string

const (
	TripStatusPending   TripStatus = "pending"
	TripStatusActive    TripStatus = "active"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusClaimed   MatchStatus = "claimed"
	MatchStatusApproved  MatchStatus = "approved"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusCompleted MatchStatus = "completed"
)

// ShopperRequest is a shopper's intent to have a bundle of items purchased
// abroad and delivered. CooldownEndsAt and PurchaseDeadline are set together
// at approval and cleared together on cancellation; requests are never
// deleted, only moved to a terminal status.
type ShopperRequest struct {
	ID                string        `db:"id" json:"id"`
	ShopperID         string        `db:"shopper_id" json:"shopper_id"`
	OriginCountry     string        `db:"origin_country" json:"origin_country"`
	DestCountry       string        `db:"dest_country" json:"dest_country"`
	DeliveryFrom      *time.Time    `db:"delivery_from" json:"delivery_from,omitempty"`
	DeliveryTo        *time.Time    `db:"delivery_to" json:"delivery_to,omitempty"`
	Status            RequestStatus `db:"status" json:"status"`
	ItemCost          float64       `db:"item_cost" json:"item_cost"`
	DeliveryFee       float64       `db:"delivery_fee" json:"delivery_fee"`
	ServiceFee        float64       `db:"service_fee" json:"service_fee"`
	Tax               float64       `db:"tax" json:"tax"`
	CooldownEndsAt    *time.Time    `db:"cooldown_ends_at" json:"cooldown_ends_at,omitempty"`
	PurchaseDeadline  *time.Time    `db:"purchase_deadline" json:"purchase_deadline,omitempty"`
	CooldownProcessed bool          `db:"cooldown_processed" json:"cooldown_processed"`
	CancelReason      string        `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// BagItem is one product line within a request. Immutable once the request
// leaves draft.
type BagItem struct {
	ID              string  `db:"id" json:"id"`
	RequestID       string  `db:"request_id" json:"request_id"`
	Name            string  `db:"name" json:"name"`
	Price           float64 `db:"price" json:"price"`
	Currency        string  `db:"currency" json:"currency"`
	WeightKg        float64 `db:"weight_kg" json:"weight_kg"`
	Quantity        int     `db:"quantity" json:"quantity"`
	Fragile         bool    `db:"fragile" json:"fragile"`
	SpecialDelivery bool    `db:"special_delivery" json:"special_delivery"`
	SpecialCategory string  `db:"special_category" json:"special_category,omitempty"`
}

// Trip is a traveler's offered carrying capacity. Capacity fields are
// decremented only through the conditional version-checked update.
type Trip struct {
	ID                 string     `db:"id" json:"id"`
	TravelerID         string     `db:"traveler_id" json:"traveler_id"`
	OriginCountry      string     `db:"origin_country" json:"origin_country"`
	DestCountry        string     `db:"dest_country" json:"dest_country"`
	DepartureAt        time.Time  `db:"departure_at" json:"departure_at"`
	ArrivalAt          time.Time  `db:"arrival_at" json:"arrival_at"`
	AvailableCarryOnKg float64    `db:"available_carry_on_kg" json:"available_carry_on_kg"`
	AvailableCheckedKg float64    `db:"available_checked_kg" json:"available_checked_kg"`
	FragileOk          bool       `db:"fragile_ok" json:"fragile_ok"`
	SpecialDeliveryOk  bool       `db:"special_delivery_ok" json:"special_delivery_ok"`
	Status             TripStatus `db:"status" json:"status"`
	Version            int64      `db:"version" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Match pairs exactly one request with exactly one trip. TravelerID is
// denormalized from the trip for query convenience. At most one non-rejected
// match may exist per (request, trip) pair; the engine enforces that with a
// lookup before every create.
type Match struct {
	ID              string      `db:"id" json:"id"`
	RequestID       string      `db:"request_id" json:"request_id"`
	TripID          string      `db:"trip_id" json:"trip_id"`
	TravelerID      string      `db:"traveler_id" json:"traveler_id"`
	MatchScore      int         `db:"match_score" json:"match_score"`
	AssignedItemIDs []string    `db:"assigned_item_ids" json:"assigned_item_ids"`
	Status          MatchStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// TravelerRating is the running mean reputation of a traveler, updated on
// match completion.
type TravelerRating struct {
	TravelerID  string  `db:"traveler_id" json:"traveler_id"`
	Rating      float64 `db:"rating" json:"rating"`
	RatingCount int     `db:"rating_count" json:"rating_count"`
}
