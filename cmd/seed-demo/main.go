package main

import (
	"context"
	"fmt"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/database"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo organization with an org admin, 20 takers, and one published
// exam assigned to everyone. All accounts use the password "examhall".
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)

	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	questionService := service.NewQuestionService(examRepo, questionRepo)

	fmt.Println("=== Seeding Demo Organization ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("examhall"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	// Organization
	orgName := "Acme Academy"
	org := &model.Organization{}
	err = pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM organizations WHERE name = $1`, orgName,
	).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to check existing organization")
		}
		org = &model.Organization{Name: orgName}
		if err := orgRepo.Create(ctx, org); err != nil {
			log.Fatal().Err(err).Msg("Failed to create organization")
		}
		fmt.Printf("Created organization with ID: %d\n", org.ID)
	} else {
		fmt.Printf("Found existing organization with ID: %d\n", org.ID)
	}

	// Org admin
	admin := &model.User{
		Email:        "admin@acme.example",
		Name:         "Acme Admin",
		PasswordHash: string(hash),
		Role:         model.RoleOrgAdmin,
		OrgID:        &org.ID,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		fmt.Printf("Org admin already exists or failed: %v\n", err)
	} else {
		fmt.Printf("Created org admin with ID: %d\n", admin.ID)
	}

	// Takers
	names := []string{
		"Alice Carter", "Ben Okafor", "Chloe Nguyen", "Daniel Reyes", "Emma Fischer",
		"Felix Horvat", "Grace Lindqvist", "Hugo Almeida", "Iris Tanaka", "Jonas Weber",
		"Katja Novak", "Liam O'Brien", "Mara Petrov", "Noah Dubois", "Olga Smirnova",
		"Pedro Costa", "Quinn Harper", "Rosa Moretti", "Sam Whitfield", "Tara Singh",
	}

	takerIDs := make([]int, 0, len(names))
	for i, name := range names {
		taker := &model.User{
			Email:        fmt.Sprintf("taker%d@acme.example", i+1),
			Name:         name,
			PasswordHash: string(hash),
			Role:         model.RoleTaker,
			OrgID:        &org.ID,
		}
		if err := userRepo.Create(ctx, taker); err != nil {
			fmt.Printf("Error creating taker %s: %v\n", taker.Email, err)
			continue
		}
		takerIDs = append(takerIDs, taker.ID)
	}
	fmt.Printf("Created %d/%d takers\n", len(takerIDs), len(names))

	if admin.ID == 0 || len(takerIDs) == 0 {
		fmt.Println("\nSeed completed (no exam created).")
		return
	}

	// Exam with a mixed question set.
	timeLimit := 30
	passing := 60
	exam, err := examService.Create(ctx, org.ID, admin.ID, &model.CreateExamRequest{
		Title:               "General Knowledge Check",
		Description:         "Demo exam seeded for local development.",
		TimeLimitMinutes:    &timeLimit,
		PassingScorePercent: &passing,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}

	one, two, three := 1, 2, 3
	questions := []model.AddQuestionRequest{
		{Title: "Which planet is closest to the sun?", Kind: "MULTIPLE_CHOICE", Choices: []string{"Mercury", "Venus", "Mars"}, CorrectChoice: &one},
		{Title: "What is 7 x 8?", Kind: "MULTIPLE_CHOICE", Choices: []string{"54", "56", "58"}, CorrectChoice: &two},
		{Title: "Which ocean is the largest?", Kind: "MULTIPLE_CHOICE", Choices: []string{"Atlantic", "Indian", "Pacific"}, CorrectChoice: &three},
		{Title: "Name a renewable energy source and describe one trade-off.", Kind: "OPEN_ENDED"},
		{Title: "Which gas do plants absorb from the atmosphere?", Kind: "MULTIPLE_CHOICE", Choices: []string{"Carbon dioxide", "Oxygen", "Nitrogen"}, CorrectChoice: &one},
	}
	for i := range questions {
		if _, err := questionService.Add(ctx, exam.ID, &questions[i]); err != nil {
			log.Fatal().Err(err).Msg("Failed to add question")
		}
	}

	if _, err := examService.Publish(ctx, exam.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish exam")
	}
	if err := assignmentRepo.Assign(ctx, exam.ID, takerIDs); err != nil {
		log.Fatal().Err(err).Msg("Failed to assign exam")
	}

	fmt.Printf("\nSeed completed! Exam %s published and assigned to %d takers.\n", exam.ID, len(takerIDs))
}
