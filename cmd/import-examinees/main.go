// Command import-examinees creates an exam from a CSV roster, so large
// classes do not have to be typed into the API by hand.
//
// CSV format, no header: name,student_id
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ccccowo/imark-backend/internal/config"
	"github.com/ccccowo/imark-backend/internal/database"
	"github.com/ccccowo/imark-backend/internal/logger"
	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/repository"
	"github.com/ccccowo/imark-backend/internal/service"
	"github.com/ccccowo/imark-backend/internal/storage"
)

func main() {
	var examName, csvPath string
	flag.StringVar(&examName, "name", "", "Name of the exam to create")
	flag.StringVar(&csvPath, "csv", "", "Path to the roster CSV (name,student_id)")
	flag.Parse()

	if examName == "" || csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open CSV")
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse CSV")
	}

	req := &model.CreateExamRequest{Name: examName}
	for i, row := range rows {
		if len(row) < 2 {
			log.Fatal().Int("line", i+1).Msg("CSV rows must be name,student_id")
		}
		req.Examinees = append(req.Examinees, model.CreateExamineeEntry{
			Name:      row[0],
			StudentID: row[1],
		})
	}
	if len(req.Examinees) == 0 {
		log.Fatal().Msg("CSV contains no examinees")
	}

	store, err := storage.NewFSStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize upload directory")
	}

	examRepo := repository.NewExamRepository(pool)
	examineeRepo := repository.NewExamineeRepository(pool)
	answerRepo := repository.NewAnswerRecordRepository(pool)
	examService := service.NewExamService(examRepo, examineeRepo, answerRepo, store, log)

	exam, err := examService.Create(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}

	fmt.Printf("Created exam %s (%s) with %d examinees\n", exam.Name, exam.ID, len(req.Examinees))
}
