// The MCP server exposes the quartermaster database to AI agents over
// stdio. It is scoped to one regiment, selected by MCP_REGIMENT_GUILD_ID,
// and attributes its writes to a dedicated agent user.
package main

import (
	"errors"
	"log"
	"os"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"
	"github.com/metroshica/foxhole-quartermaster-sub001/controllers/idgen"
	"github.com/metroshica/foxhole-quartermaster-sub001/mcpserver/tools"
	"github.com/metroshica/foxhole-quartermaster-sub001/models"
	"github.com/metroshica/foxhole-quartermaster-sub001/services"

	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const agentDiscordID = "quartermaster-mcp-agent"

func main() {
	config.LoadConfig()
	idgen.Init()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	guildID := os.Getenv("MCP_REGIMENT_GUILD_ID")
	if guildID == "" {
		log.Fatal("MCP_REGIMENT_GUILD_ID is required")
	}

	var regiment models.Regiment
	if err := db.Where("discord_guild_id = ?", guildID).First(&regiment).Error; err != nil {
		log.Fatalf("No regiment for guild %s: %v", guildID, err)
	}

	agent, err := ensureAgentUser(db)
	if err != nil {
		log.Fatalf("Failed to prepare agent user: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	deps := &tools.Deps{
		DB:       db,
		Regiment: &regiment,
		Agent:    agent,
		War:      services.NewWarService(rdb),
	}

	s := server.NewMCPServer(
		"foxhole-quartermaster",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	listOrders := tools.NewListOrdersTool(deps)
	s.AddTool(listOrders.Definition(), listOrders.Handle)

	getOrder := tools.NewGetOrderTool(deps)
	s.AddTool(getOrder.Definition(), getOrder.Handle)

	createOrder := tools.NewCreateOrderTool(deps)
	s.AddTool(createOrder.Definition(), createOrder.Handle)

	updateProgress := tools.NewUpdateProgressTool(deps)
	s.AddTool(updateProgress.Definition(), updateProgress.Handle)

	listStockpiles := tools.NewListStockpilesTool(deps)
	s.AddTool(listStockpiles.Definition(), listStockpiles.Handle)

	findItem := tools.NewFindItemTool(deps)
	s.AddTool(findItem.Definition(), findItem.Handle)

	inventory := tools.NewInventorySummaryTool(deps)
	s.AddTool(inventory.Definition(), inventory.Handle)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("MCP server stopped: %v", err)
	}
}

func ensureAgentUser(db *gorm.DB) (*models.User, error) {
	var user models.User
	err := db.Where("discord_id = ?", agentDiscordID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{DiscordID: agentDiscordID, Name: "MCP Agent"}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
