package reporting

import (
	"github.com/shopspring/decimal"

	"stockcart/internal/domain"
)

// DailyReport summarizes the carts ordered on one calendar day.
type DailyReport struct {
	Date           string
	TotalRevenue   decimal.Decimal
	TotalItemsSold int
	TotalOrders    int
	Products       []ProductSales
}

type ProductSales struct {
	ProductID int64
	Name      string
	Unit      string
	Quantity  int
	Revenue   decimal.Decimal
}

// Aggregate builds the report for date from the day's ordered carts. Revenue
// comes from each cart's cached sum; per-product revenue uses the current
// product price. Products are listed in order of first appearance.
func Aggregate(date string, carts []domain.CartSnapshot) DailyReport {
	report := DailyReport{
		Date:         date,
		TotalRevenue: decimal.Zero,
		TotalOrders:  len(carts),
		Products:     []ProductSales{},
	}

	index := make(map[int64]int)
	for _, c := range carts {
		report.TotalRevenue = report.TotalRevenue.Add(c.Cart.Sum)

		for _, l := range c.Lines {
			report.TotalItemsSold += l.Quantity

			i, ok := index[l.ProductID]
			if !ok {
				i = len(report.Products)
				index[l.ProductID] = i
				report.Products = append(report.Products, ProductSales{
					ProductID: l.ProductID,
					Name:      l.ProductName,
					Unit:      l.ProductUnit,
					Revenue:   decimal.Zero,
				})
			}

			p := &report.Products[i]
			p.Quantity += l.Quantity
			p.Revenue = p.Revenue.Add(l.Subtotal())
		}
	}

	return report
}
