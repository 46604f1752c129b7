package tools_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mark3labs/mcp-go/mcp"
	"gorm.io/gorm"

	"github.com/metroshica/foxhole-quartermaster-sub001/mcpserver/tools"
	"github.com/metroshica/foxhole-quartermaster-sub001/migration"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"
)

type toolFixture struct {
	deps   *tools.Deps
	db     *gorm.DB
	depotA models.Stockpile
	depotB models.Stockpile
}

func setupTools(t *testing.T) *toolFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migration.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	regiment := models.Regiment{DiscordGuildID: "guild-1", Name: "Test Regiment"}
	if err := db.Create(&regiment).Error; err != nil {
		t.Fatalf("create regiment: %v", err)
	}
	agent := models.User{DiscordID: "agent-1", Name: "Agent"}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("create agent: %v", err)
	}

	f := &toolFixture{db: db}
	f.depotA = models.Stockpile{RegimentID: regiment.ID, Name: "Alpha Depot", Type: models.StockpileTypeStorageDepot, Hex: "Deadlands", LocationName: "Abandoned Ward"}
	if err := db.Create(&f.depotA).Error; err != nil {
		t.Fatalf("create depot A: %v", err)
	}
	f.depotB = models.Stockpile{RegimentID: regiment.ID, Name: "Bravo Seaport", Type: models.StockpileTypeSeaport, Hex: "Origin", LocationName: "The Salt March"}
	if err := db.Create(&f.depotB).Error; err != nil {
		t.Fatalf("create depot B: %v", err)
	}

	war := services.NewWarService(nil)
	war.URL = "http://127.0.0.1:0" // unreachable on purpose, lookups fall back to 0

	f.deps = &tools.Deps{DB: db, Regiment: &regiment, Agent: &agent, War: war}
	return f
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content is %T, want text", result.Content[0])
	}
	return text.Text
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %s", resultText(t, result))
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &decoded); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	return decoded
}

func TestCreateAndGetOrderTools(t *testing.T) {
	f := setupTools(t)

	create := tools.NewCreateOrderTool(f.deps)
	result, err := create.Handle(context.Background(), callRequest("create_production_order", map[string]interface{}{
		"name":     "Rifle Run",
		"items":    `[{"item_code": "rifle_c", "quantity": 10}]`,
		"priority": float64(2),
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	created := resultJSON(t, result)
	shortID, _ := created["short_id"].(string)
	if len(shortID) != 4 {
		t.Fatalf("short_id = %q, want 4 characters", shortID)
	}

	// A second order with the same name is refused.
	result, err = create.Handle(context.Background(), callRequest("create_production_order", map[string]interface{}{
		"name":  "Rifle Run",
		"items": `[{"item_code": "rifle_c", "quantity": 5}]`,
	}))
	if err != nil {
		t.Fatalf("duplicate create: %v", err)
	}
	if !result.IsError {
		t.Fatal("duplicate order name accepted")
	}

	get := tools.NewGetOrderTool(f.deps)
	result, err = get.Handle(context.Background(), callRequest("get_production_order", map[string]interface{}{
		"short_id": shortID,
	}))
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	detail := resultJSON(t, result)
	if detail["name"] != "Rifle Run" || detail["status"] != models.OrderStatusPending {
		t.Fatalf("detail = %v, want pending Rifle Run", detail)
	}

	// Missing short_id is a tool error, not a transport failure.
	result, err = get.Handle(context.Background(), callRequest("get_production_order", nil))
	if err != nil {
		t.Fatalf("get without short_id: %v", err)
	}
	if !result.IsError {
		t.Fatal("missing short_id accepted")
	}
}

func TestUpdateProgressToolCreditsStockpile(t *testing.T) {
	f := setupTools(t)

	create := tools.NewCreateOrderTool(f.deps)
	result, err := create.Handle(context.Background(), callRequest("create_production_order", map[string]interface{}{
		"name":  "Bandage Batch",
		"items": `[{"item_code": "bandages", "quantity": 20}]`,
	}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	created := resultJSON(t, result)
	shortID := created["short_id"].(string)

	var order models.ProductionOrder
	if err := f.db.Where("short_id = ?", shortID).First(&order).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	for _, depot := range []models.Stockpile{f.depotA, f.depotB} {
		target := models.ProductionOrderTargetStockpile{OrderID: order.ID, StockpileID: depot.ID}
		if err := f.db.Create(&target).Error; err != nil {
			t.Fatalf("create target: %v", err)
		}
	}

	// Two targets and no selection: the error names both candidates.
	progress := tools.NewUpdateProgressTool(f.deps)
	result, err = progress.Handle(context.Background(), callRequest("update_production_progress", map[string]interface{}{
		"short_id": shortID,
		"items":    `[{"item_code": "bandages", "quantity_produced": 8}]`,
	}))
	if err != nil {
		t.Fatalf("ambiguous progress: %v", err)
	}
	if !result.IsError {
		t.Fatal("ambiguous target accepted")
	}
	if text := resultText(t, result); !strings.Contains(text, "Alpha Depot") || !strings.Contains(text, "Bravo Seaport") {
		t.Fatalf("error text %q does not name the candidates", text)
	}

	result, err = progress.Handle(context.Background(), callRequest("update_production_progress", map[string]interface{}{
		"short_id":         shortID,
		"items":            `[{"item_code": "bandages", "quantity_produced": 8}]`,
		"target_stockpile": "Alpha Depot",
	}))
	if err != nil {
		t.Fatalf("progress update: %v", err)
	}
	detail := resultJSON(t, result)
	stockpile, ok := detail["stockpile"].(map[string]interface{})
	if !ok || stockpile["units_added"] != float64(8) {
		t.Fatalf("stockpile = %v, want 8 units added to Alpha Depot", detail["stockpile"])
	}

	var item models.StockpileItem
	if err := f.db.Where("stockpile_id = ? AND item_code = ? AND crated = ?", f.depotA.ID, "bandages", true).
		First(&item).Error; err != nil {
		t.Fatalf("load depot item: %v", err)
	}
	if item.Quantity != 8 {
		t.Fatalf("depot bandages = %d, want 8", item.Quantity)
	}

	var total int
	if err := f.db.Model(&models.ProductionContribution{}).
		Where("order_id = ?", order.ID).
		Select("coalesce(sum(quantity), 0)").Scan(&total).Error; err != nil {
		t.Fatalf("sum contributions: %v", err)
	}
	if total != 8 {
		t.Fatalf("contribution total = %d, want 8", total)
	}
}
