package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/GTDGit/gtd_admin/internal/models"
)

// DashboardSummary is the overview shown on the console home page.
type DashboardSummary struct {
	TotalProducts    int              `json:"totalProducts"`
	TotalUsers       int              `json:"totalUsers"`
	TotalOrders      int              `json:"totalOrders"`
	TotalRevenue     float64          `json:"totalRevenue"`
	RecentOrders     []models.Order   `json:"recentOrders"`
	LowStockProducts []models.Product `json:"lowStockProducts"`
}

// DashboardService aggregates figures from several resources.
type DashboardService struct {
	products *ProductService
	orders   *OrderService
	users    *UserService
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(products *ProductService, orders *OrderService, users *UserService) *DashboardService {
	return &DashboardService{products: products, orders: orders, users: users}
}

// Summary fetches every figure concurrently. The first failure cancels the
// rest and is returned.
func (s *DashboardService) Summary(ctx context.Context, recent int) (*DashboardSummary, error) {
	out := &DashboardSummary{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		page, err := s.products.List(ctx, ListParams{Page: 1, Limit: 1})
		if err != nil {
			return err
		}
		out.TotalProducts = page.Total
		return nil
	})
	g.Go(func() error {
		stats, err := s.users.Stats(ctx)
		if err != nil {
			return err
		}
		out.TotalUsers = stats.TotalUsers
		return nil
	})
	g.Go(func() error {
		stats, err := s.orders.Stats(ctx, DateRange{})
		if err != nil {
			return err
		}
		out.TotalOrders = stats.TotalOrders
		out.TotalRevenue = stats.TotalRevenue
		return nil
	})
	g.Go(func() error {
		orders, err := s.orders.Recent(ctx, recent)
		if err != nil {
			return err
		}
		out.RecentOrders = orders
		return nil
	})
	g.Go(func() error {
		products, err := s.products.LowStock(ctx, DefaultLowStockThreshold)
		if err != nil {
			return err
		}
		out.LowStockProducts = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
