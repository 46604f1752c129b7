// Package tools implements the MCP tools exposed over the quartermaster
// database. Each tool is a small struct holding its dependencies; the
// server wires them in main.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/repositories"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"

	"github.com/mark3labs/mcp-go/mcp"
	"gorm.io/gorm"
)

// Deps is the shared dependency set injected into every tool: the
// database, the regiment the server is scoped to and the agent user any
// writes are attributed to.
type Deps struct {
	DB       *gorm.DB
	Regiment *models.Regiment
	Agent    *models.User
	War      *services.WarService
}

type orderItemArg struct {
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
}

type ListOrdersTool struct{ deps *Deps }

func NewListOrdersTool(deps *Deps) *ListOrdersTool { return &ListOrdersTool{deps: deps} }

func (t *ListOrdersTool) Definition() mcp.Tool {
	return mcp.NewTool("list_production_orders",
		mcp.WithDescription("List the regiment's active production orders with progress summaries. Optionally filter by status (PENDING, IN_PROGRESS, READY_FOR_PICKUP, COMPLETED, CANCELLED, FULFILLED)."),
		mcp.WithString("status", mcp.Description("Only return orders with this status")),
	)
}

func (t *ListOrdersTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := argString(request, "status")
	if status != "" && !models.IsValidOrderStatus(status) {
		return mcp.NewToolResultError("unknown status: " + status), nil
	}

	repo := repositories.NewProductionRepository(t.deps.DB)
	if err := repo.MarkReadyMpfOrders(t.deps.Regiment.ID); err != nil {
		return nil, err
	}

	orders, err := repo.ListOrders(t.deps.Regiment.ID, repositories.OrderFilters{Status: status, Limit: 100})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(orders))
	for i := range orders {
		out = append(out, orderSummary(&orders[i]))
	}
	return jsonResult(map[string]interface{}{"orders": out, "order_count": len(out)})
}

type GetOrderTool struct{ deps *Deps }

func NewGetOrderTool(deps *Deps) *GetOrderTool { return &GetOrderTool{deps: deps} }

func (t *GetOrderTool) Definition() mcp.Tool {
	return mcp.NewTool("get_production_order",
		mcp.WithDescription("Fetch one production order by its 4-character short id, including items, progress and target stockpiles."),
		mcp.WithString("short_id", mcp.Required(), mcp.Description("The order's short id, e.g. K7PQ")),
	)
}

func (t *GetOrderTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shortID, err := requireString(request, "short_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	repo := repositories.NewProductionRepository(t.deps.DB)
	if err := repo.MarkReadyMpfOrders(t.deps.Regiment.ID); err != nil {
		return nil, err
	}

	order, err := repo.GetOrderByShortID(t.deps.Regiment.ID, strings.ToUpper(shortID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mcp.NewToolResultError("no order with short id " + shortID), nil
		}
		return nil, err
	}
	return jsonResult(orderDetail(order))
}

type CreateOrderTool struct{ deps *Deps }

func NewCreateOrderTool(deps *Deps) *CreateOrderTool { return &CreateOrderTool{deps: deps} }

func (t *CreateOrderTool) Definition() mcp.Tool {
	return mcp.NewTool("create_production_order",
		mcp.WithDescription("Create a production order. Items is a JSON array of {\"item_code\", \"quantity\"} objects."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Order name, unique within the regiment")),
		mcp.WithString("items", mcp.Required(), mcp.Description("JSON array of items to produce")),
		mcp.WithNumber("priority", mcp.Description("0 low to 3 critical, default 0")),
		mcp.WithBoolean("is_mpf", mcp.Description("Whether this is a mass production factory order")),
	)
}

func (t *CreateOrderTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(request, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemsJSON, err := requireString(request, "items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var items []orderItemArg
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return mcp.NewToolResultError("items must be a JSON array of {item_code, quantity}: " + err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultError("at least one item is required"), nil
	}
	for _, item := range items {
		if item.ItemCode == "" || item.Quantity <= 0 {
			return mcp.NewToolResultError("every item needs an item_code and a positive quantity"), nil
		}
	}

	priority := argInt(request, "priority", 0)
	if priority < 0 || priority > 3 {
		return mcp.NewToolResultError("priority must be between 0 and 3"), nil
	}

	var existing models.ProductionOrder
	if err := t.deps.DB.Where("regiment_id = ? AND name = ? AND archived_at IS NULL",
		t.deps.Regiment.ID, name).First(&existing).Error; err == nil {
		return mcp.NewToolResultError("an order named " + name + " already exists"), nil
	}

	order := models.ProductionOrder{
		RegimentID:  t.deps.Regiment.ID,
		Name:        name,
		Priority:    priority,
		IsMpf:       argBool(request, "is_mpf", false),
		Status:      models.OrderStatusPending,
		CreatedByID: t.deps.Agent.ID,
		WarNumber:   t.deps.War.CurrentWarNumber(ctx),
	}

	err = t.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range items {
			orderItem := models.ProductionOrderItem{
				OrderID:          order.ID,
				ItemCode:         item.ItemCode,
				QuantityRequired: item.Quantity,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
			order.Items = append(order.Items, orderItem)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(orderDetail(&order))
}

type UpdateProgressTool struct{ deps *Deps }

func NewUpdateProgressTool(deps *Deps) *UpdateProgressTool { return &UpdateProgressTool{deps: deps} }

func (t *UpdateProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("update_production_progress",
		mcp.WithDescription("Record production progress on an order. Items is a JSON array of {\"item_code\", \"quantity_produced\"} with the new absolute produced counts. Positive deltas are credited to the agent and added to the target stockpile."),
		mcp.WithString("short_id", mcp.Required(), mcp.Description("The order's short id")),
		mcp.WithString("items", mcp.Required(), mcp.Description("JSON array of new produced counts")),
		mcp.WithString("target_stockpile", mcp.Description("Name of the target stockpile when the order has several")),
	)
}

func (t *UpdateProgressTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shortID, err := requireString(request, "short_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	itemsJSON, err := requireString(request, "items")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var args []struct {
		ItemCode         string `json:"item_code"`
		QuantityProduced int    `json:"quantity_produced"`
	}
	if err := json.Unmarshal([]byte(itemsJSON), &args); err != nil {
		return mcp.NewToolResultError("items must be a JSON array of {item_code, quantity_produced}: " + err.Error()), nil
	}
	if len(args) == 0 {
		return mcp.NewToolResultError("at least one item is required"), nil
	}
	for _, arg := range args {
		if arg.QuantityProduced < 0 {
			return mcp.NewToolResultError("quantity_produced cannot be negative"), nil
		}
	}

	repo := repositories.NewProductionRepository(t.deps.DB)
	order, err := repo.GetOrderByShortID(t.deps.Regiment.ID, strings.ToUpper(shortID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mcp.NewToolResultError("no order with short id " + shortID), nil
		}
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return mcp.NewToolResultError("order " + shortID + " is cancelled"), nil
	}

	var target *models.Stockpile
	targetName := argString(request, "target_stockpile")
	switch {
	case targetName != "":
		for i := range order.TargetStockpiles {
			if strings.EqualFold(order.TargetStockpiles[i].Stockpile.Name, targetName) {
				target = &order.TargetStockpiles[i].Stockpile
				break
			}
		}
		if target == nil {
			return mcp.NewToolResultError(targetName + " is not a target stockpile of this order"), nil
		}
	case len(order.TargetStockpiles) == 1:
		target = &order.TargetStockpiles[0].Stockpile
	case len(order.TargetStockpiles) > 1:
		names := make([]string, 0, len(order.TargetStockpiles))
		for _, candidate := range order.TargetStockpiles {
			names = append(names, candidate.Stockpile.Name)
		}
		return mcp.NewToolResultError("this order has multiple target stockpiles, pass target_stockpile with one of: " + strings.Join(names, ", ")), nil
	}

	updates := make([]repositories.ProgressUpdate, 0, len(args))
	for _, arg := range args {
		updates = append(updates, repositories.ProgressUpdate{
			ItemCode:         arg.ItemCode,
			QuantityProduced: arg.QuantityProduced,
		})
	}

	warNumber := t.deps.War.CurrentWarNumber(ctx)
	unitsAdded, err := repositories.ApplyProgress(t.deps.DB, order, updates, target, t.deps.Agent.ID, warNumber)
	if err != nil {
		return nil, err
	}

	result := orderDetail(order)
	if target != nil && unitsAdded > 0 {
		result["stockpile"] = map[string]interface{}{
			"name":        target.Name,
			"units_added": unitsAdded,
		}
	}
	return jsonResult(result)
}

func orderSummary(order *models.ProductionOrder) map[string]interface{} {
	summary := services.Summarize(order.Items)
	return map[string]interface{}{
		"short_id":       order.ShortID,
		"name":           order.Name,
		"status":         order.Status,
		"priority":       models.PriorityLabel(order.Priority),
		"is_mpf":         order.IsMpf,
		"is_standing":    order.IsStandingOrder,
		"percentage":     summary.Percentage,
		"items_complete": fmt.Sprintf("%d/%d", summary.ItemsComplete, summary.ItemCount),
	}
}

func orderDetail(order *models.ProductionOrder) map[string]interface{} {
	detail := orderSummary(order)

	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"item_code":         item.ItemCode,
			"quantity_required": item.QuantityRequired,
			"quantity_produced": item.QuantityProduced,
		})
	}
	detail["items"] = items

	if len(order.TargetStockpiles) > 0 {
		targets := make([]string, 0, len(order.TargetStockpiles))
		for _, target := range order.TargetStockpiles {
			targets = append(targets, target.Stockpile.Name)
		}
		detail["target_stockpiles"] = targets
	}
	if order.IsMpf && order.MpfReadyAt != nil {
		detail["mpf_ready_at"] = order.MpfReadyAt
	}
	return detail
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
