package services

import (
	"math"

	"github.com/ritalabs/rita/internal/models"
)

// NPSBreakdown counts completed customers by promoter class.
type NPSBreakdown struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
}

// AssociateStats roll up completed surveys for one sales associate.
// AverageNPS is the arithmetic mean of raw 0-10 scores; AssociateNPS is the
// promoter/detractor-percentage formula. The two are not interchangeable
// and are reported side by side.
type AssociateStats struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
	AverageNPS    float64 `json:"average_nps"`
	AssociateNPS  int     `json:"associate_nps"`
}

// StoreStats roll up completed surveys for one store, with a nested
// per-associate breakdown.
type StoreStats struct {
	Count         int                       `json:"count"`
	AverageRating float64                   `json:"average_rating"`
	AverageNPS    float64                   `json:"average_nps"`
	StoreNPS      int                       `json:"store_nps"`
	Associates    map[string]AssociateStats `json:"associates"`
}

// SurveyStats is the dashboard snapshot computed over the full customer set.
type SurveyStats struct {
	TotalCustomers   int                       `json:"total_customers"`
	CompletedSurveys int                       `json:"completed_surveys"`
	CompletionRate   float64                   `json:"completion_rate"`
	AverageRating    float64                   `json:"average_rating"`
	AverageNPS       float64                   `json:"average_nps"`
	CompanyNPS       int                       `json:"company_nps"`
	NPSBreakdown     NPSBreakdown              `json:"nps_breakdown"`
	ManagerCallbacks int                       `json:"manager_callbacks"`
	OptOuts          int                       `json:"opt_outs"`
	ByStore          map[string]StoreStats     `json:"by_store"`
	ByAssociate      map[string]AssociateStats `json:"by_associate"`
}

// NetPromoterScore applies the standard formula over raw 0-10 scores:
// round(100*promoters/n - 100*detractors/n). Empty input scores 0.
func NetPromoterScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	var promoters, detractors int
	for _, s := range scores {
		switch {
		case s >= 9:
			promoters++
		case s <= 6:
			detractors++
		}
	}
	n := float64(len(scores))
	return int(math.Round(100*float64(promoters)/n - 100*float64(detractors)/n))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int
	for _, v := range values {
		sum += v
	}
	return round1(float64(sum) / float64(len(values)))
}

type group struct {
	ratings []int
	nps     []int
	count   int
}

func (g *group) add(c *models.Customer) {
	g.count++
	if c.SatisfactionRating != nil {
		g.ratings = append(g.ratings, *c.SatisfactionRating)
	}
	if c.NPSScore != nil {
		g.nps = append(g.nps, *c.NPSScore)
	}
}

// BuildStats computes the full analytics snapshot. It is a pure function of
// the customer slice; opt-outs are counted over the whole set while every
// other measure covers completed surveys only.
func BuildStats(customers []models.Customer) *SurveyStats {
	stats := &SurveyStats{
		TotalCustomers: len(customers),
		ByStore:        map[string]StoreStats{},
		ByAssociate:    map[string]AssociateStats{},
	}

	company := &group{}
	stores := map[string]*group{}
	storeAssociates := map[string]map[string]*group{}
	associates := map[string]*group{}

	for i := range customers {
		c := &customers[i]
		if c.Status == models.CustomerStatusOptedOut {
			stats.OptOuts++
		}
		if c.Status != models.CustomerStatusCompleted {
			continue
		}

		stats.CompletedSurveys++
		company.add(c)
		if c.ManagerCallbackRequested {
			stats.ManagerCallbacks++
		}
		if c.NPSScore != nil {
			switch {
			case *c.NPSScore >= 9:
				stats.NPSBreakdown.Promoters++
			case *c.NPSScore >= 7:
				stats.NPSBreakdown.Passives++
			default:
				stats.NPSBreakdown.Detractors++
			}
		}

		store := c.StoreLocation
		if store == "" {
			store = "Unknown"
		}
		assoc := c.SalesAssociate
		if assoc == "" {
			assoc = "Unknown"
		}

		if stores[store] == nil {
			stores[store] = &group{}
			storeAssociates[store] = map[string]*group{}
		}
		stores[store].add(c)
		if storeAssociates[store][assoc] == nil {
			storeAssociates[store][assoc] = &group{}
		}
		storeAssociates[store][assoc].add(c)
		if associates[assoc] == nil {
			associates[assoc] = &group{}
		}
		associates[assoc].add(c)
	}

	if stats.TotalCustomers > 0 {
		stats.CompletionRate = round1(float64(stats.CompletedSurveys) / float64(stats.TotalCustomers) * 100)
	}
	stats.AverageRating = mean(company.ratings)
	stats.AverageNPS = mean(company.nps)
	stats.CompanyNPS = NetPromoterScore(company.nps)

	for name, g := range stores {
		ss := StoreStats{
			Count:         g.count,
			AverageRating: mean(g.ratings),
			AverageNPS:    mean(g.nps),
			StoreNPS:      NetPromoterScore(g.nps),
			Associates:    map[string]AssociateStats{},
		}
		for aname, ag := range storeAssociates[name] {
			ss.Associates[aname] = associateStats(ag)
		}
		stats.ByStore[name] = ss
	}
	for name, g := range associates {
		stats.ByAssociate[name] = associateStats(g)
	}
	return stats
}

func associateStats(g *group) AssociateStats {
	return AssociateStats{
		Count:         g.count,
		AverageRating: mean(g.ratings),
		AverageNPS:    mean(g.nps),
		AssociateNPS:  NetPromoterScore(g.nps),
	}
}
