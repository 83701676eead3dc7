// Package dashboard computes the back-office landing statistics.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/praxxy/backoffice/models"
)

// Days is the length of the activity chart window, today included.
const Days = 7

// Stats is the dashboard payload.
type Stats struct {
	ProductsCount    int64             `json:"products_count"`
	UsersCount       int64             `json:"users_count"`
	VideosCount      int64             `json:"videos_count"`
	UniqueVisitors   int64             `json:"unique_visitors"`
	ChartData        ChartData         `json:"chart_data"`
	VisitorLocations []VisitorLocation `json:"visitor_locations"`
}

// ChartData holds parallel per-day series, oldest day first.
type ChartData struct {
	Dates    []string `json:"dates"`
	Products []int64  `json:"products"`
	Videos   []int64  `json:"videos"`
	Users    []int64  `json:"users"`
	Visitors []int64  `json:"visitors"`
}

type VisitorLocation struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
	City  string  `json:"city"`
}

// visitorLocations is a fixed sample shown on the map.
var visitorLocations = []VisitorLocation{
	{Lat: 14.5995, Lng: 120.9842, Count: 150, City: "Manila"},
	{Lat: 10.3157, Lng: 123.8854, Count: 80, City: "Cebu"},
	{Lat: 7.0707, Lng: 125.6087, Count: 60, City: "Davao"},
	{Lat: 16.4023, Lng: 120.5960, Count: 40, City: "Baguio"},
	{Lat: 13.1391, Lng: 123.7437, Count: 30, City: "Legazpi"},
}

// Empty is returned when the statistics cannot be computed.
func Empty() Stats {
	return Stats{
		ChartData: ChartData{
			Dates:    []string{},
			Products: []int64{},
			Videos:   []int64{},
			Users:    []int64{},
			Visitors: []int64{},
		},
		VisitorLocations: []VisitorLocation{},
	}
}

// Aggregator reads counts from the record store.
type Aggregator struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewAggregator(db *gorm.DB, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{db: db, log: log, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Compute never fails: on any store error it logs and returns Empty().
func (a *Aggregator) Compute(ctx context.Context) Stats {
	stats, err := a.compute(ctx)
	if err != nil {
		a.log.Error("dashboard stats failed", zap.Error(err))
		return Empty()
	}
	return stats
}

func (a *Aggregator) compute(ctx context.Context) (Stats, error) {
	db := a.db.WithContext(ctx)
	stats := Empty()

	totals := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Product{}, &stats.ProductsCount},
		{&models.User{}, &stats.UsersCount},
		{&models.Video{}, &stats.VideosCount},
		{&models.SessionActivity{}, &stats.UniqueVisitors},
	}
	for _, t := range totals {
		if err := db.Model(t.model).Count(t.dst).Error; err != nil {
			return Stats{}, fmt.Errorf("count %T: %w", t.model, err)
		}
	}

	now := a.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := Days - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		end := start.AddDate(0, 0, 1)

		var products, videos, users, visitors int64
		if err := db.Model(&models.Product{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&products).Error; err != nil {
			return Stats{}, fmt.Errorf("daily products: %w", err)
		}
		if err := db.Model(&models.Video{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&videos).Error; err != nil {
			return Stats{}, fmt.Errorf("daily videos: %w", err)
		}
		if err := db.Model(&models.User{}).Where("created_at >= ? AND created_at < ?", start, end).Count(&users).Error; err != nil {
			return Stats{}, fmt.Errorf("daily users: %w", err)
		}
		if err := db.Model(&models.SessionActivity{}).Where("last_activity >= ? AND last_activity < ?", start.Unix(), end.Unix()).Count(&visitors).Error; err != nil {
			return Stats{}, fmt.Errorf("daily visitors: %w", err)
		}

		stats.ChartData.Dates = append(stats.ChartData.Dates, start.Format("2006-01-02"))
		stats.ChartData.Products = append(stats.ChartData.Products, products)
		stats.ChartData.Videos = append(stats.ChartData.Videos, videos)
		stats.ChartData.Users = append(stats.ChartData.Users, users)
		stats.ChartData.Visitors = append(stats.ChartData.Visitors, visitors)
	}

	stats.VisitorLocations = append(stats.VisitorLocations, visitorLocations...)
	return stats, nil
}
