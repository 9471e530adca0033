package repository

import (
	"fmt"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mongo stores times with millisecond precision, so documents are truncated
// on the way in and the stored form is what callers get back.
const mongoTimePrecision = time.Millisecond

type orderDocument struct {
	ID           string            `bson:"_id"`
	Products     []productDocument `bson:"products"`
	CustomerInfo customerDocument  `bson:"customer_info"`
	DeliveryInfo deliveryDocument  `bson:"delivery_info"`
	IsPaid       bool              `bson:"is_paid"`
	CreatedAt    time.Time         `bson:"created_at"`
}

type customerDocument struct {
	FirstName   string `bson:"first_name"`
	LastName    string `bson:"last_name"`
	Email       string `bson:"email"`
	PhoneNumber string `bson:"phone_number"`
}

type deliveryDocument struct {
	Address    string `bson:"address"`
	City       string `bson:"city"`
	PostalCode string `bson:"postal_code"`
	Country    string `bson:"country"`
}

type productDocument struct {
	ID           string               `bson:"id"`
	Name         string               `bson:"name"`
	Description  string               `bson:"description"`
	Price        primitive.Decimal128 `bson:"price"`
	Manufacturer manufacturerDocument `bson:"manufacturer"`
	Categories   []string             `bson:"categories"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
	Reviews      []reviewDocument     `bson:"reviews"`
}

type manufacturerDocument struct {
	ID      string `bson:"id"`
	Name    string `bson:"name"`
	Address string `bson:"address"`
	Contact string `bson:"contact"`
}

type reviewDocument struct {
	ReviewerName string    `bson:"reviewer_name"`
	Comment      string    `bson:"comment"`
	Rating       int       `bson:"rating"`
	ReviewDate   time.Time `bson:"review_date"`
}

func toOrderDocument(o *domain.Order) (*orderDocument, error) {
	products := make([]productDocument, 0, len(o.Products))
	for _, p := range o.Products {
		price, err := primitive.ParseDecimal128(p.Price.String())
		if err != nil {
			return nil, fmt.Errorf("convert price of product %s: %w", p.ID, err)
		}

		categories := make([]string, len(p.Categories))
		for i, c := range p.Categories {
			categories[i] = string(c)
		}

		reviews := make([]reviewDocument, len(p.Reviews))
		for i, r := range p.Reviews {
			reviews[i] = reviewDocument{
				ReviewerName: r.ReviewerName,
				Comment:      r.Comment,
				Rating:       r.Rating,
				ReviewDate:   r.ReviewDate.UTC().Truncate(mongoTimePrecision),
			}
		}

		products = append(products, productDocument{
			ID:          p.ID.String(),
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Manufacturer: manufacturerDocument{
				ID:      p.Manufacturer.ID.String(),
				Name:    p.Manufacturer.Name,
				Address: p.Manufacturer.Address,
				Contact: p.Manufacturer.Contact,
			},
			Categories: categories,
			CreatedAt:  p.CreatedAt.UTC().Truncate(mongoTimePrecision),
			UpdatedAt:  p.UpdatedAt.UTC().Truncate(mongoTimePrecision),
			Reviews:    reviews,
		})
	}

	return &orderDocument{
		ID:       o.OrderID.String(),
		Products: products,
		CustomerInfo: customerDocument{
			FirstName:   o.CustomerInfo.FirstName,
			LastName:    o.CustomerInfo.LastName,
			Email:       o.CustomerInfo.Email,
			PhoneNumber: o.CustomerInfo.PhoneNumber,
		},
		DeliveryInfo: deliveryDocument{
			Address:    o.DeliveryInfo.Address,
			City:       o.DeliveryInfo.City,
			PostalCode: o.DeliveryInfo.PostalCode,
			Country:    o.DeliveryInfo.Country,
		},
		IsPaid:    o.IsPaid,
		CreatedAt: o.CreatedAt.UTC().Truncate(mongoTimePrecision),
	}, nil
}

func (d *orderDocument) toDomain() (*domain.Order, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse order id %q: %w", d.ID, err)
	}

	products := make([]domain.Product, 0, len(d.Products))
	for _, p := range d.Products {
		product, err := p.toDomain()
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", d.ID, err)
		}
		products = append(products, product)
	}

	return &domain.Order{
		OrderID:  id,
		Products: products,
		CustomerInfo: domain.CustomerInfo{
			FirstName:   d.CustomerInfo.FirstName,
			LastName:    d.CustomerInfo.LastName,
			Email:       d.CustomerInfo.Email,
			PhoneNumber: d.CustomerInfo.PhoneNumber,
		},
		DeliveryInfo: domain.DeliveryInfo{
			Address:    d.DeliveryInfo.Address,
			City:       d.DeliveryInfo.City,
			PostalCode: d.DeliveryInfo.PostalCode,
			Country:    d.DeliveryInfo.Country,
		},
		IsPaid:    d.IsPaid,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

func (p *productDocument) toDomain() (domain.Product, error) {
	id, err := parseOptionalUUID(p.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse product id: %w", err)
	}
	manufacturerID, err := parseOptionalUUID(p.Manufacturer.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse manufacturer id: %w", err)
	}
	price, err := decimal.NewFromString(p.Price.String())
	if err != nil {
		return domain.Product{}, fmt.Errorf("parse price of product %s: %w", p.ID, err)
	}

	categories := make([]domain.Category, len(p.Categories))
	for i, c := range p.Categories {
		categories[i] = domain.Category(c)
	}

	reviews := make([]domain.Review, len(p.Reviews))
	for i, r := range p.Reviews {
		reviews[i] = domain.Review{
			ReviewerName: r.ReviewerName,
			Comment:      r.Comment,
			Rating:       r.Rating,
			ReviewDate:   r.ReviewDate.UTC(),
		}
	}

	return domain.Product{
		ID:          id,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Manufacturer: domain.Manufacturer{
			ID:      manufacturerID,
			Name:    p.Manufacturer.Name,
			Address: p.Manufacturer.Address,
			Contact: p.Manufacturer.Contact,
		},
		Categories: categories,
		CreatedAt:  p.CreatedAt.UTC(),
		UpdatedAt:  p.UpdatedAt.UTC(),
		Reviews:    reviews,
	}, nil
}

// parseOptionalUUID treats an empty string as uuid.Nil.
func parseOptionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
