package repository

import (
	"time"

	"github.com/Damiangorskii/web-order-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestOrder(createdAt time.Time) *domain.Order {
	return &domain.Order{
		OrderID: uuid.New(),
		Products: []domain.Product{
			{
				ID:          uuid.New(),
				Name:        "Teddy bear",
				Description: "Soft toy",
				Price:       decimal.RequireFromString("19.99"),
				Manufacturer: domain.Manufacturer{
					ID:      uuid.New(),
					Name:    "Toys Inc",
					Address: "1 Toy Street",
					Contact: "contact@toys.test",
				},
				Categories: []domain.Category{domain.CategoryToysGames, domain.CategoryBabyProducts},
				CreatedAt:  createdAt.Add(-48 * time.Hour),
				UpdatedAt:  createdAt.Add(-24 * time.Hour),
				Reviews: []domain.Review{
					{ReviewerName: "Ann", Comment: "Great", Rating: 5, ReviewDate: createdAt.Add(-time.Hour)},
				},
			},
		},
		CustomerInfo: domain.CustomerInfo{
			FirstName:   "Joe",
			LastName:    "Doe",
			Email:       "joedoe@test.com",
			PhoneNumber: "555666777",
		},
		DeliveryInfo: domain.DeliveryInfo{
			Address:    "Street 1",
			City:       "Warsaw",
			PostalCode: "00-001",
			Country:    "Poland",
		},
		CreatedAt: createdAt,
	}
}
