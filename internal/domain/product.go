package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

type Category string

const (
	CategoryElectronics          Category = "ELECTRONICS"
	CategoryClothing             Category = "CLOTHING"
	CategoryGrocery              Category = "GROCERY"
	CategoryBeauty               Category = "BEAUTY"
	CategoryBooks                Category = "BOOKS"
	CategorySportsEquipment      Category = "SPORTS_EQUIPMENT"
	CategoryToysGames            Category = "TOYS_GAMES"
	CategoryJewelry              Category = "JEWELRY"
	CategoryHomeDecor            Category = "HOME_DECOR"
	CategoryGardening            Category = "GARDENING"
	CategoryPetsSupplies         Category = "PETS_SUPPLIES"
	CategoryOfficeSupplies       Category = "OFFICE_SUPPLIES"
	CategoryMusicalInstruments   Category = "MUSICAL_INSTRUMENTS"
	CategoryMoviesMusic          Category = "MOVIES_MUSIC"
	CategoryHealthWellness       Category = "HEALTH_WELLNESS"
	CategoryAutomotive           Category = "AUTOMOTIVE"
	CategoryDIYTools             Category = "DIY_TOOLS"
	CategoryFootwear             Category = "FOOTWEAR"
	CategoryTravelAccessories    Category = "TRAVEL_ACCESSORIES"
	CategoryFurniture            Category = "FURNITURE"
	CategoryArtsCrafts           Category = "ARTS_CRAFTS"
	CategoryStationery           Category = "STATIONERY"
	CategoryBabyProducts         Category = "BABY_PRODUCTS"
	CategoryGourmetFood          Category = "GOURMET_FOOD"
	CategoryBeverages            Category = "BEVERAGES"
	CategoryOutdoorRecreation    Category = "OUTDOOR_RECREATION"
	CategoryAntiquesCollectibles Category = "ANTIQUES_COLLECTIBLES"
	CategoryVintageClothing      Category = "VINTAGE_CLOTHING"
	CategoryBikesAccessories     Category = "BIKES_ACCESSORIES"
)

var knownCategories = map[Category]struct{}{
	CategoryElectronics: {}, CategoryClothing: {}, CategoryGrocery: {}, CategoryBeauty: {},
	CategoryBooks: {}, CategorySportsEquipment: {}, CategoryToysGames: {}, CategoryJewelry: {},
	CategoryHomeDecor: {}, CategoryGardening: {}, CategoryPetsSupplies: {}, CategoryOfficeSupplies: {},
	CategoryMusicalInstruments: {}, CategoryMoviesMusic: {}, CategoryHealthWellness: {},
	CategoryAutomotive: {}, CategoryDIYTools: {}, CategoryFootwear: {}, CategoryTravelAccessories: {},
	CategoryFurniture: {}, CategoryArtsCrafts: {}, CategoryStationery: {}, CategoryBabyProducts: {},
	CategoryGourmetFood: {}, CategoryBeverages: {}, CategoryOutdoorRecreation: {},
	CategoryAntiquesCollectibles: {}, CategoryVintageClothing: {}, CategoryBikesAccessories: {},
}

func (c Category) Valid() bool {
	_, ok := knownCategories[c]
	return ok
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Category(s).Valid() {
		return fmt.Errorf("unknown category %q", s)
	}
	*c = Category(s)
	return nil
}

type Manufacturer struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Contact string    `json:"contact"`
}

type Review struct {
	ReviewerName string    `json:"reviewerName"`
	Comment      string    `json:"comment"`
	Rating       int       `json:"rating"`
	ReviewDate   time.Time `json:"reviewDate"`
}

// Product is a read-only snapshot of a catalog product taken from a cart.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Manufacturer Manufacturer    `json:"manufacturer"`
	Categories   []Category      `json:"categories"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Reviews      []Review        `json:"reviews"`
}

// CartSnapshot represents the cart contents returned by the shopping cart service
type CartSnapshot struct {
	ID       uuid.UUID `json:"id"`
	Products []Product `json:"products"`
}
