package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zatekoja/omnichannel-engine/internal/adapters/database"
	"github.com/zatekoja/omnichannel-engine/internal/domain/entities"
	"github.com/zatekoja/omnichannel-engine/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/omnichannel-engine/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := goqu.New("postgres", pgClient.DB())

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				agent_business_hours,
				department_agents,
				inquiries,
				rooms,
				visitors,
				departments,
				agents,
				business_hour_work_hours,
				business_hours
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	now := time.Now()

	// 1. Seed agents
	agents := []struct {
		id       string
		username string
		roles    []string
	}{
		{uuid.NewString(), "alice", []string{entities.RoleLivechatAgent}},
		{uuid.NewString(), "bob", []string{entities.RoleLivechatAgent}},
		{uuid.NewString(), "carol", []string{entities.RoleLivechatAgent}},
		{uuid.NewString(), "helper-bot", []string{entities.RoleLivechatAgent, entities.RoleBot}},
	}
	for _, a := range agents {
		query, args, err := db.Insert("agents").Rows(goqu.Record{
			"id":              a.id,
			"username":        a.username,
			"roles":           pq.Array(a.roles),
			"status":          entities.AgentStatusOnline,
			"status_livechat": entities.LivechatStatusNotAvailable,
			"created_at":      now,
			"updated_at":      now,
		}).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build agent insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create agent %s: %v", a.username, err)
		}
	}

	// 2. Seed departments: sales falls back to support
	salesID := uuid.NewString()
	supportID := uuid.NewString()
	departments := []goqu.Record{
		{"id": supportID, "name": "Support", "enabled": true, "archived": false, "created_at": now, "updated_at": now},
		{"id": salesID, "name": "Sales", "enabled": true, "archived": false, "fallback_forward_department_id": supportID, "created_at": now, "updated_at": now},
	}
	for _, d := range departments {
		query, args, err := db.Insert("departments").Rows(d).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build department insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create department %s: %v", d["name"], err)
		}
	}

	departmentRepo := database.NewDepartmentAdapter(pgClient)
	memberships := map[string][]string{
		supportID: {agents[0].id, agents[1].id},
		salesID:   {agents[2].id},
	}
	for departmentID, agentIDs := range memberships {
		for _, agentID := range agentIDs {
			if err := departmentRepo.AddAgent(ctx, departmentID, agentID); err != nil {
				log.Printf("Failed to add agent to department: %v", err)
			}
		}
	}

	// 3. Seed a department business hour for Support (weekday office hours)
	businessHourRepo := database.NewBusinessHourAdapter(pgClient)
	officeHours := &entities.BusinessHour{
		ID:        uuid.NewString(),
		Name:      "Support office hours",
		Type:      entities.BusinessHourTypeDepartment,
		Active:    true,
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for day := time.Monday; day <= time.Friday; day++ {
		officeHours.WorkHours = append(officeHours.WorkHours, entities.WorkHourWindow{
			Day:          day.String(),
			Start:        "09:00",
			End:          "17:00",
			StartUTCDay:  day.String(),
			StartUTCTime: "09:00",
			EndUTCDay:    day.String(),
			EndUTCTime:   "17:00",
		})
	}
	if err := businessHourRepo.Create(ctx, officeHours); err != nil {
		log.Printf("Failed to create business hour: %v", err)
	}
	if err := departmentRepo.AssignBusinessHour(ctx, []string{supportID}, officeHours.ID); err != nil {
		log.Printf("Failed to assign business hour: %v", err)
	}

	// 4. Seed a visitor with an open room and a ready inquiry
	visitorID := uuid.NewString()
	visitorToken := uuid.NewString()
	roomID := uuid.NewString()
	inquiryID := uuid.NewString()

	visitorQuery, visitorArgs, err := db.Insert("visitors").Rows(goqu.Record{
		"id":            visitorID,
		"username":      "guest-1",
		"token":         visitorToken,
		"status":        "online",
		"department_id": salesID,
	}).ToSQL()
	if err != nil {
		log.Fatalf("Failed to build visitor insert: %v", err)
	}
	if _, err := pgClient.DB().ExecContext(ctx, visitorQuery, visitorArgs...); err != nil {
		log.Printf("Failed to create visitor: %v", err)
	}

	roomQuery, roomArgs, err := db.Insert("rooms").Rows(goqu.Record{
		"id":            roomID,
		"department_id": salesID,
		"open":          true,
		"visitor_token": visitorToken,
		"created_at":    now,
		"updated_at":    now,
	}).ToSQL()
	if err != nil {
		log.Fatalf("Failed to build room insert: %v", err)
	}
	if _, err := pgClient.DB().ExecContext(ctx, roomQuery, roomArgs...); err != nil {
		log.Printf("Failed to create room: %v", err)
	}

	inquiryRepo := database.NewInquiryAdapter(pgClient)
	inquiry := &entities.Inquiry{
		ID:           inquiryID,
		RoomID:       roomID,
		Name:         "guest-1",
		Message:      "Hi, I have a question about pricing",
		Status:       entities.InquiryStatusReady,
		DepartmentID: salesID,
		Visitor: entities.Visitor{
			ID:       visitorID,
			Username: "guest-1",
			Token:    visitorToken,
			Status:   "online",
		},
		PriorityWeight:       3,
		EstimatedWaitingTime: 30,
		TS:                   now,
	}
	if err := inquiryRepo.Create(ctx, inquiry); err != nil {
		log.Printf("Failed to create inquiry: %v", err)
	}

	log.Println("Seeding complete")
	log.Printf("  departments: Support=%s Sales=%s", supportID, salesID)
	log.Printf("  business hour: %s", officeHours.ID)
	log.Printf("  ready inquiry: %s (room %s)", inquiryID, roomID)
}
