package tools

import (
	"context"

	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/repositories"

	"github.com/mark3labs/mcp-go/mcp"
)

type ListStockpilesTool struct{ deps *Deps }

func NewListStockpilesTool(deps *Deps) *ListStockpilesTool { return &ListStockpilesTool{deps: deps} }

func (t *ListStockpilesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_stockpiles",
		mcp.WithDescription("List the regiment's stockpiles with their locations and item counts."),
	)
}

func (t *ListStockpilesTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stockpiles []models.Stockpile
	if err := t.deps.DB.Preload("Items").Where("regiment_id = ?", t.deps.Regiment.ID).
		Order("hex, name").Find(&stockpiles).Error; err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(stockpiles))
	for _, stockpile := range stockpiles {
		entry := map[string]interface{}{
			"name":       stockpile.Name,
			"type":       stockpile.Type,
			"location":   stockpile.Location(),
			"item_count": len(stockpile.Items),
		}
		if stockpile.LastRefreshedAt != nil {
			entry["last_refreshed_at"] = stockpile.LastRefreshedAt
		}
		out = append(out, entry)
	}
	return jsonResult(map[string]interface{}{"stockpiles": out, "stockpile_count": len(out)})
}

type FindItemTool struct{ deps *Deps }

func NewFindItemTool(deps *Deps) *FindItemTool { return &FindItemTool{deps: deps} }

func (t *FindItemTool) Definition() mcp.Tool {
	return mcp.NewTool("find_item",
		mcp.WithDescription("Find which stockpiles hold an item, largest quantity first."),
		mcp.WithString("item_code", mcp.Required(), mcp.Description("The item code to search for")),
	)
}

func (t *FindItemTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemCode, err := requireString(request, "item_code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	repo := repositories.NewStockpileRepository(t.deps.DB)
	rows, err := repo.FindItem(t.deps.Regiment.ID, itemCode)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("No stockpile currently holds " + itemCode + "."), nil
	}
	return jsonResult(map[string]interface{}{"locations": rows})
}

type InventorySummaryTool struct{ deps *Deps }

func NewInventorySummaryTool(deps *Deps) *InventorySummaryTool {
	return &InventorySummaryTool{deps: deps}
}

func (t *InventorySummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("inventory_summary",
		mcp.WithDescription("Aggregate item totals across every stockpile in the regiment."),
	)
}

func (t *InventorySummaryTool) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo := repositories.NewStockpileRepository(t.deps.DB)
	rows, err := repo.InventorySummary(t.deps.Regiment.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(map[string]interface{}{"items": rows, "item_count": len(rows)})
}
