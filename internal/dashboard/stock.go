package dashboard

import (
	"fmt"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/stock
func StockSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		db := database.DB
		var total, low, out, alerts int64

		if err := db.Model(&models.Medicin{}).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Statistiques indisponibles")
		}
		if err := db.Model(&models.Medicin{}).
			Where("quantity IS NOT NULL AND seuil_alerte IS NOT NULL AND quantity <= seuil_alerte").
			Count(&low).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Statistiques indisponibles")
		}
		if err := db.Model(&models.Medicin{}).
			Where("quantity IS NULL OR quantity <= 0").
			Count(&out).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Statistiques indisponibles")
		}
		if err := db.Model(&models.Alert{}).Where("est_resolue = ?", false).Count(&alerts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Statistiques indisponibles")
		}

		type row struct {
			Category string `gorm:"column:category"`
			N        int    `gorm:"column:n"`
		}
		var rows []row
		if err := db.Model(&models.Medicin{}).
			Select("categorie AS category, COUNT(*) AS n").
			Where("categorie IS NOT NULL AND categorie <> ''").
			Group("categorie").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Statistiques indisponibles")
		}

		byCategory := make(map[string]int, len(rows))
		for _, r := range rows {
			byCategory[r.Category] = r.N
		}

		return c.JSON(api.StockSummary{
			Total:        int(total),
			LowStock:     int(low),
			Sufficient:   int(total - low),
			OutOfStock:   int(out),
			ActiveAlerts: int(alerts),
			ByCategory:   byCategory,
		})
	}
}

// GET /api/dashboard/movements-chart?period=daily&count=7
func MovementChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		count := 0
		if s := c.Query("count"); s != "" {
			if _, err := fmt.Sscan(s, &count); err != nil || count <= 0 || count > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "count invalide")
			}
		}

		chart, err := buildChart(period, count, time.Now())
		if err != nil {
			return err
		}

		from := chart.From
		to, _ := api.ParseLocalDate(chart.To)

		var rows []models.StockMovement
		if err := database.DB.
			Where("date_mouvement >= ? AND date_mouvement < ?", from, to.AddDays(1).String()).
			Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mouvements indisponibles")
		}

		chart.add(rows)
		return c.JSON(chart.MovementChart)
	}
}

type chart struct {
	api.MovementChart
	bucket func(time.Time) time.Time
	index  map[string]int
}

// buildChart lays out count empty buckets ending with the one holding now.
func buildChart(period string, count int, now time.Time) (*chart, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		bucket func(time.Time) time.Time
		next   func(time.Time) time.Time
	)
	switch period {
	case "daily":
		if count == 0 {
			count = 7
		}
		bucket = func(t time.Time) time.Time { return t }
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case "weekly":
		if count == 0 {
			count = 8
		}
		bucket = func(t time.Time) time.Time {
			// weeks start on monday
			return t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
		}
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case "monthly":
		if count == 0 {
			count = 12
		}
		bucket = func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC) }
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "period invalide (daily, weekly, monthly)")
	}

	last := bucket(today)
	start := last
	for i := 1; i < count; i++ {
		start = bucket(start.AddDate(0, 0, -1))
	}

	ch := &chart{
		MovementChart: api.MovementChart{
			Period: period,
			From:   start.Format(api.DateLayout),
			To:     today.Format(api.DateLayout),
			Points: make([]api.MovementChartPoint, 0, count),
		},
		bucket: bucket,
		index:  make(map[string]int, count),
	}
	for t := start; !t.After(last); t = next(t) {
		label := t.Format(api.DateLayout)
		ch.index[label] = len(ch.Points)
		ch.Points = append(ch.Points, api.MovementChartPoint{Label: label})
	}
	return ch, nil
}

func (ch *chart) add(rows []models.StockMovement) {
	for _, mv := range rows {
		d := mv.DateMouvement.Time
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		i, ok := ch.index[ch.bucket(day).Format(api.DateLayout)]
		if !ok {
			continue
		}
		p := &ch.Points[i]
		if mv.Type == api.MovementOut {
			p.Sorties += mv.Quantite
			ch.Totals.Sorties += mv.Quantite
		} else {
			p.Entrees += mv.Quantite
			ch.Totals.Entrees += mv.Quantite
		}
		p.Net = p.Entrees - p.Sorties
	}
	ch.Totals.Net = ch.Totals.Entrees - ch.Totals.Sorties
}
