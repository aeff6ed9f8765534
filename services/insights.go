package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"usedcars-pipeline/models"
	"usedcars-pipeline/utils"
)

const (
	topN          = 10
	makersListLen = 40
	modelsListLen = 30
	yearsWindow   = 30
)

type InsightService struct {
	logger *utils.Logger
	now    func() time.Time
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, now: time.Now}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	now := s.now()
	report := &models.InsightReport{
		GeneratedAt:     now,
		ListingsByMaker: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalOffers = len(listings)

	var prices, ages []float64
	modelCounts := make(map[[2]string]int)
	makerValue := make(map[string]float64)
	yearBody := make(map[int]map[string]int)
	yearPrices := make(map[int][]float64)
	firstYear := now.Year() - yearsWindow

	for _, l := range listings {
		maker, hasMaker := l.Get(models.FieldMaker)
		model, hasModel := l.Get(models.FieldModel)
		price, hasPrice := l.Float(models.FieldPrice)
		reg, hasReg := l.Date(models.FieldRegistration)

		if hasMaker {
			report.ListingsByMaker[maker]++
		}
		if hasMaker && hasModel {
			modelCounts[[2]string{maker, model}]++
		}
		if hasPrice {
			prices = append(prices, price)
			if hasMaker {
				makerValue[maker] += price
			}
			if report.MostExpensive == nil || price > mustFloat(report.MostExpensive, models.FieldPrice) {
				report.MostExpensive = l
			}
		}
		if hasReg {
			ages = append(ages, now.Sub(reg).Hours()/24/365)
			if reg.Year() >= firstYear {
				body := l.Text(models.FieldBody)
				if body == "" {
					body = BodyOther
				}
				if yearBody[reg.Year()] == nil {
					yearBody[reg.Year()] = make(map[string]int)
				}
				yearBody[reg.Year()][body]++
				if hasPrice {
					yearPrices[reg.Year()] = append(yearPrices[reg.Year()], price)
				}
			}
		}
	}

	report.MedianPrice = round2(quantile(prices, 0.5))
	report.MedianAgeYears = round2(quantile(ages, 0.5))

	for k, n := range modelCounts {
		report.TopSelling = append(report.TopSelling, models.ModelCount{Maker: k[0], Model: k[1], Offers: n})
	}
	sort.Slice(report.TopSelling, func(i, j int) bool {
		a, b := report.TopSelling[i], report.TopSelling[j]
		if a.Offers != b.Offers {
			return a.Offers > b.Offers
		}
		if a.Maker != b.Maker {
			return a.Maker < b.Maker
		}
		return a.Model < b.Model
	})
	if len(report.TopSelling) > topN {
		report.TopSelling = report.TopSelling[:topN]
	}

	for maker, sum := range makerValue {
		report.TopValueMakers = append(report.TopValueMakers, models.MakerValue{Maker: maker, PriceSum: sum})
	}
	sort.Slice(report.TopValueMakers, func(i, j int) bool {
		a, b := report.TopValueMakers[i], report.TopValueMakers[j]
		if a.PriceSum != b.PriceSum {
			return a.PriceSum > b.PriceSum
		}
		return a.Maker < b.Maker
	})
	if len(report.TopValueMakers) > topN {
		report.TopValueMakers = report.TopValueMakers[:topN]
	}

	for year, bodies := range yearBody {
		for body, n := range bodies {
			report.CountsByYear = append(report.CountsByYear, models.YearBodyCount{Year: year, Body: body, Counts: n})
		}
	}
	sort.Slice(report.CountsByYear, func(i, j int) bool {
		a, b := report.CountsByYear[i], report.CountsByYear[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Body < b.Body
	})

	for year, ps := range yearPrices {
		report.PricesByYear = append(report.PricesByYear, models.YearPrice{
			Year:   year,
			Median: round2(quantile(ps, 0.5)),
			Q25:    round2(quantile(ps, 0.25)),
			Q75:    round2(quantile(ps, 0.75)),
		})
	}
	sort.Slice(report.PricesByYear, func(i, j int) bool {
		return report.PricesByYear[i].Year < report.PricesByYear[j].Year
	})

	s.logger.Debug("[insights] %d offers, %d maker/model pairs", report.TotalOffers, len(modelCounts))
	return report
}

// Makers returns the makers with the most offers, alphabetically.
func (s *InsightService) Makers(listings []*models.Listing) []string {
	counts := make(map[string]int)
	for _, l := range listings {
		if maker, ok := l.Get(models.FieldMaker); ok {
			counts[maker]++
		}
	}
	return topKeys(counts, makersListLen)
}

// Models returns the models of maker with the most offers, alphabetically.
func (s *InsightService) Models(listings []*models.Listing, maker string) []string {
	counts := make(map[string]int)
	for _, l := range listings {
		if l.Text(models.FieldMaker) != maker {
			continue
		}
		if model, ok := l.Get(models.FieldModel); ok {
			counts[model]++
		}
	}
	return topKeys(counts, modelsListLen)
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🚗 USED CARS DATASET INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Offers tracked : \033[1m%d\033[0m\n", r.TotalOffers)
	if r.MedianPrice > 0 {
		fmt.Printf("  Median price   : \033[1;32m€%.0f\033[0m\n", r.MedianPrice)
	}
	if r.MedianAgeYears > 0 {
		fmt.Printf("  Median age     : \033[1m%.1f years\033[0m\n", r.MedianAgeYears)
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Offer\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s %s\n", r.MostExpensive.Text(models.FieldMaker), truncate(r.MostExpensive.Text(models.FieldModel), 40))
		fmt.Printf("  Price : \033[1;31m€%s\033[0m\n", r.MostExpensive.Text(models.FieldPrice))
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Top %d Selling Cars\033[0m\n", topN)
	fmt.Printf("  %s\n", thin)
	if len(r.TopSelling) == 0 {
		fmt.Printf("  No maker/model data\n")
	}
	for i, mc := range r.TopSelling {
		name := truncate(mc.Maker+" "+mc.Model, 38)
		fmt.Printf("  \033[1m%2d.\033[0m %-40s %d\n", i+1, name, mc.Offers)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top %d Most Valuable Makers\033[0m\n", topN)
	fmt.Printf("  %s\n", thin)
	if len(r.TopValueMakers) == 0 {
		fmt.Printf("  No price data available\n")
	}
	for i, mv := range r.TopValueMakers {
		fmt.Printf("  \033[1m%2d.\033[0m %-30s \033[1;32m€%.2fM\033[0m\n", i+1, truncate(mv.Maker, 28), mv.PriceSum/1e6)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Price by Registration Year (median, q25-q75)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.PricesByYear) == 0 {
		fmt.Printf("  No registration data\n")
	}
	for _, yp := range r.PricesByYear {
		fmt.Printf("  %d  €%-10.0f (€%.0f - €%.0f)\n", yp.Year, yp.Median, yp.Q25, yp.Q75)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// quantile interpolates linearly between closest ranks. Empty input yields 0.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	sort.Strings(keys)
	return keys
}

func mustFloat(l *models.Listing, name string) float64 {
	v, _ := l.Float(name)
	return v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
