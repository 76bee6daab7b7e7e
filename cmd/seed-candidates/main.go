package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/database"
	"github.com/ihubtech/testportal-backend/internal/logger"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

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

	accountRepo := repository.NewAccountRepository(pool)

	fmt.Println("=== Seeding 50 Candidates ===")

	names := []string{
		"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
		"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
		"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
		"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
		"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
		"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
		"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
		"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
		"Larasati Dewi", "Miko Pambudi", "Nia Ramadhani", "Oscar Lawalata", "Puput Melati",
		"Reza Rahadian", "Sari Nila", "Tigor Siahaan", "Utari Maharani", "Vicky Prasetyo",
	}

	// All seed accounts share one password so local testing stays simple.
	hash, err := bcrypt.GenerateFromPassword([]byte("candidate-secret"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	successCount := 0
	for i, name := range names {
		cand := &model.Candidate{
			CandidateID:  fmt.Sprintf("cand-%04d", i+1),
			Name:         name,
			Email:        fmt.Sprintf("cand-%04d@example.com", i+1),
			PasswordHash: string(hash),
		}

		if err := accountRepo.CreateCandidate(ctx, cand); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				fmt.Printf("Candidate %s already exists, skipping\n", cand.CandidateID)
				continue
			}
			fmt.Printf("Error creating candidate %s (%s): %v\n", cand.Name, cand.CandidateID, err)
			continue
		}

		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d candidates...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d candidates.\n", successCount, len(names))
}
