package dataset

import (
	"math"
	"math/rand"
)

// Customer mirrors the column set of the marketing customers table. Income
// is optional: a small share of generated records has no income, which
// exercises the generator's null-filtering rules downstream.
type Customer struct {
	ID                  int64    `parquet:"ID"`
	YearBirth           int32    `parquet:"Year_Birth"`
	Income              *float64 `parquet:"Income,optional"`
	Kidhome             int32    `parquet:"Kidhome"`
	Teenhome            int32    `parquet:"Teenhome"`
	Recency             int32    `parquet:"Recency"`
	MntWines            int32    `parquet:"MntWines"`
	MntFruits           int32    `parquet:"MntFruits"`
	MntMeatProducts     int32    `parquet:"MntMeatProducts"`
	MntFishProducts     int32    `parquet:"MntFishProducts"`
	MntSweetProducts    int32    `parquet:"MntSweetProducts"`
	MntGoldProds        int32    `parquet:"MntGoldProds"`
	NumWebPurchases     int32    `parquet:"NumWebPurchases"`
	NumCatalogPurchases int32    `parquet:"NumCatalogPurchases"`
	NumStorePurchases   int32    `parquet:"NumStorePurchases"`
}

// Generator produces a deterministic synthetic customers dataset for a
// given seed.
type Generator struct {
	rnd      *rand.Rand
	sequence int64
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Customers(count int) []Customer {
	customers := make([]Customer, 0, count)
	for i := 0; i < count; i++ {
		customers = append(customers, g.next())
	}
	return customers
}

func (g *Generator) next() Customer {
	g.sequence++

	customer := Customer{
		ID:                  g.sequence,
		YearBirth:           int32(1940 + g.rnd.Intn(66)),
		Kidhome:             int32(g.rnd.Intn(3)),
		Teenhome:            int32(g.rnd.Intn(3)),
		Recency:             int32(g.rnd.Intn(100)),
		MntWines:            int32(g.rnd.Intn(1200)),
		MntFruits:           int32(g.rnd.Intn(200)),
		MntMeatProducts:     int32(g.rnd.Intn(800)),
		MntFishProducts:     int32(g.rnd.Intn(250)),
		MntSweetProducts:    int32(g.rnd.Intn(200)),
		MntGoldProds:        int32(g.rnd.Intn(300)),
		NumWebPurchases:     int32(g.rnd.Intn(15)),
		NumCatalogPurchases: int32(g.rnd.Intn(12)),
		NumStorePurchases:   int32(g.rnd.Intn(15)),
	}

	// Roughly 1 in 40 records has no reported income, like the source
	// marketing dataset.
	if g.rnd.Intn(40) != 0 {
		income := round2(15000 + g.rnd.Float64()*150000)
		customer.Income = &income
	}
	return customer
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
