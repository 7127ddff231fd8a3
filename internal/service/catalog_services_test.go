package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_admin/internal/models"
	"github.com/GTDGit/gtd_admin/internal/utils"
	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

func TestCategoryService_TreeAndReorder(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"GET /api/categories": `{"success":true,"data":[
			{"id":"b","name":"Bars","parentId":"root","displayOrder":2},
			{"id":"root","name":"Steel","displayOrder":1},
			{"id":"a","name":"Angles","parentId":"root","displayOrder":1}
		]}`,
		"PATCH /api/categories/reorder": `{"success":true}`,
	})
	svc := NewCategoryService(client)
	ctx := context.Background()

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "a", tree[0].Children[0].ID)

	require.NoError(t, svc.Reorder(ctx, []models.CategoryOrder{{ID: "a", DisplayOrder: 2}, {ID: "b", DisplayOrder: 1}}))
	orders, ok := api.last(t).Body["categoryOrders"].([]any)
	require.True(t, ok)
	assert.Len(t, orders, 2)

	assert.ErrorIs(t, svc.Reorder(ctx, nil), utils.ErrEmptySelection)
}

func TestCategoryService_UploadIconEnforcesLogoLimit(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"POST /api/categories/icon": `{"success":true,"data":"/uploads/icon.png"}`,
	})
	svc := NewCategoryService(client)

	u, err := svc.UploadIcon(context.Background(), "c1", catalogapi.FilePart{Filename: "i.png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/icon.png", u)

	big := make([]byte, catalogapi.MaxLogoBytes+1)
	copy(big, pngHeader)
	_, err = svc.UploadIcon(context.Background(), "c1", catalogapi.FilePart{Filename: "big.png", Data: big})
	assert.ErrorIs(t, err, catalogapi.ErrFileTooLarge)
	assert.Equal(t, 1, api.count())
}

func TestBrandService_Paths(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"GET /api/admin/products/brands/all":          `[{"id":"b1","name":"Krakatau"}]`,
		"GET /api/admin/products/brands/country/ID":   `{"data":[{"id":"b1","countryOfOrigin":"ID"}]}`,
		"GET /api/admin/products/brands/b1/stats":     `{"data":{"totalProducts":4,"activeProducts":3}}`,
		"PATCH /api/admin/products/brands/bulk-status": `{"success":true}`,
		"POST /api/admin/products/brands/logo":        `{"data":"/uploads/logo.png"}`,
	})
	svc := NewBrandService(client)
	ctx := context.Background()

	page, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	byCountry, err := svc.ByCountry(ctx, "ID")
	require.NoError(t, err)
	assert.Len(t, byCountry, 1)

	stats, err := svc.Stats(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ActiveProducts)

	require.NoError(t, svc.BulkUpdateStatus(ctx, []string{"b1"}, false))
	assert.Equal(t, "/api/admin/products/brands/bulk-status", api.last(t).Path)

	logo, err := svc.UploadLogo(ctx, "b1", catalogapi.FilePart{Filename: "l.png", Data: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/logo.png", logo)
}

func TestOrderService_StatusTransitions(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"PATCH /api/orders/o1/status": `{"data":{"id":"o1","status":"confirmed"}}`,
		"PATCH /api/orders/o1/cancel": `{"data":{"id":"o1","status":"cancelled"}}`,
		"POST /api/orders/o1/refund":  `{"success":true}`,
		"PATCH /api/orders/bulk-status": `{"success":true}`,
	})
	svc := NewOrderService(client)
	ctx := context.Background()

	o, err := svc.UpdateStatus(ctx, "o1", models.OrderStatusPending, StatusUpdate{Status: models.OrderStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)

	_, err = svc.UpdateStatus(ctx, "o1", models.OrderStatusDelivered, StatusUpdate{Status: models.OrderStatusPending})
	assert.ErrorIs(t, err, utils.ErrStatusTransition)
	_, err = svc.UpdateStatus(ctx, "o1", "", StatusUpdate{Status: "shipped"})
	assert.ErrorIs(t, err, utils.ErrInvalidStatus)

	o, err = svc.Cancel(ctx, "o1", models.OrderStatusProcessing, "customer request")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, o.Status)
	assert.Equal(t, "customer request", api.last(t).Body["reason"])

	_, err = svc.Cancel(ctx, "o1", models.OrderStatusInTransit, "")
	assert.ErrorIs(t, err, utils.ErrStatusTransition)

	_, err = svc.Refund(ctx, "o1", 0, "")
	assert.ErrorIs(t, err, utils.ErrInvalidAmount)
	_, err = svc.Refund(ctx, "o1", 50, "damaged")
	require.NoError(t, err)
	assert.Equal(t, float64(50), api.last(t).Body["amount"])

	require.NoError(t, svc.BulkUpdateStatus(ctx, []string{"o1", "o2"}, models.OrderStatusProcessing))
	assert.Equal(t, "processing", api.last(t).Body["status"])
}

func TestOrderService_StatsAndRecent(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"GET /api/orders/stats":  `{"data":{"totalOrders":12,"totalRevenue":3400.5}}`,
		"GET /api/orders/recent": `{"data":[{"id":"o1"},{"id":"o2"}]}`,
	})
	svc := NewOrderService(client)
	ctx := context.Background()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats, err := svc.Stats(ctx, DateRange{From: from})
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalOrders)
	assert.Equal(t, "2024-01-01", api.last(t).Query["from"][0])
	assert.NotContains(t, api.last(t).Query, "to")

	recent, err := svc.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
	assert.Equal(t, "5", api.last(t).Query["limit"][0])
}

func TestUserService(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"PATCH /api/users/u1/status":           `{"data":{"id":"u1","isActive":false}}`,
		"GET /api/users/stats":                 `{"data":{"totalUsers":9}}`,
		"POST /api/users/u1/reset-password":    `{"success":true}`,
		"POST /api/users/u1/send-verification": `{"success":true}`,
	})
	svc := NewUserService(client)
	ctx := context.Background()

	u, err := svc.UpdateStatus(ctx, "u1", false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, stats.TotalUsers)

	require.NoError(t, svc.ResetPassword(ctx, "u1"))
	require.NoError(t, svc.SendVerification(ctx, "u1"))
	assert.Equal(t, "/api/users/u1/send-verification", api.last(t).Path)
}

func TestAdminService_Roles(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"POST /api/admin/users/u1/make-admin":         `{"data":{"id":"u1","publicMetadata":{"role":"manager"}}}`,
		"DELETE /api/admin/users/u1/remove-admin":     `{"data":{"id":"u1"}}`,
		"PATCH /api/admin/users/u1/update-permissions": `{"success":true}`,
		"PATCH /api/admin/users/u1/role":              `{"success":true}`,
		"GET /api/admin/users/admins":                 `{"data":[{"id":"u1"}]}`,
		"GET /api/admin/users/u1/activity":            `[{"id":"a1","action":"login"}]`,
	})
	svc := NewAdminService(client)
	ctx := context.Background()

	u, err := svc.MakeAdmin(ctx, "u1", models.RoleManager, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, u.Role())
	assert.Len(t, api.last(t).Body["permissions"], len(models.RolePresets[models.RoleManager]))

	_, err = svc.MakeAdmin(ctx, "u1", models.RoleCustomer, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidRole)

	u, err = svc.RemoveAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, u.Role())

	_, err = svc.UpdatePermissions(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{}, api.last(t).Body["permissions"])

	_, err = svc.UpdateRole(ctx, "u1", "owner")
	assert.ErrorIs(t, err, utils.ErrInvalidRole)
	_, err = svc.UpdateRole(ctx, "u1", models.RoleSupport)
	require.NoError(t, err)

	admins, err := svc.Admins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	activity, err := svc.Activity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "login", activity[0].Action)
}

func TestAdminService_BulkPartialFailureIsReported(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"POST /api/admin/users/bulk-assign-roles": `{"success":true,"data":{"successful":1,"failed":1,"errors":["u2: not found"]}}`,
		"POST /api/admin/users/bulk-remove-admin": `{"data":{"successful":2,"failed":0,"errors":[]}}`,
	})
	svc := NewAdminService(client)
	ctx := context.Background()

	res, err := svc.BulkAssignRoles(ctx, []models.AdminAssignment{
		{UserID: "u1", Role: models.RoleSupport},
		{UserID: "u2", Role: models.RoleAdmin, Permissions: []string{models.PermManageOrders}},
	})
	require.NoError(t, err)
	assert.True(t, res.Partial())
	assert.Equal(t, []string{"u2: not found"}, res.Errors)
	assignments := api.last(t).Body["assignments"].([]any)
	first := assignments[0].(map[string]any)
	assert.Len(t, first["permissions"], len(models.RolePresets[models.RoleSupport]))

	res, err = svc.BulkRemoveAdminRoles(ctx, []string{"u1", "u2"})
	require.NoError(t, err)
	assert.False(t, res.Partial())
	assert.Equal(t, []any{"u1", "u2"}, api.last(t).Body["userIds"])

	_, err = svc.BulkAssignRoles(ctx, nil)
	assert.ErrorIs(t, err, utils.ErrEmptySelection)
}

func TestDashboardService_Summary(t *testing.T) {
	_, client := newFakeAPI(t, map[string]string{
		"GET /api/products":           `{"data":[{"id":"p1"}],"pagination":{"total":1250}}`,
		"GET /api/users/stats":        `{"data":{"totalUsers":3420}}`,
		"GET /api/orders/stats":       `{"data":{"totalOrders":892,"totalRevenue":125000}}`,
		"GET /api/orders/recent":      `{"data":[{"id":"o1"}]}`,
		"GET /api/products/low-stock": `{"data":[{"id":"p9"}]}`,
	})
	svc := NewDashboardService(NewProductService(client), NewOrderService(client), NewUserService(client))

	sum, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1250, sum.TotalProducts)
	assert.Equal(t, 3420, sum.TotalUsers)
	assert.Equal(t, 892, sum.TotalOrders)
	assert.Equal(t, 125000.0, sum.TotalRevenue)
	assert.Len(t, sum.RecentOrders, 1)
	assert.Len(t, sum.LowStockProducts, 1)
}

func TestDashboardService_FirstFailureWins(t *testing.T) {
	api, client := newFakeAPI(t, map[string]string{
		"GET /api/products":           `[]`,
		"GET /api/orders/stats":       `{"data":{}}`,
		"GET /api/orders/recent":      `[]`,
		"GET /api/products/low-stock": `[]`,
	})
	api.fail("GET /api/users/stats", http.StatusInternalServerError, `{"message":"stats down"}`)
	svc := NewDashboardService(NewProductService(client), NewOrderService(client), NewUserService(client))

	_, err := svc.Summary(context.Background(), 5)
	assert.Equal(t, "stats down", catalogapi.UserMessage(err))
}
