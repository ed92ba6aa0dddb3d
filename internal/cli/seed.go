package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"ladder-quiz-service/internal/domain"
	"ladder-quiz-service/internal/infra/memory"
	"ladder-quiz-service/internal/infra/postgres"
)

// NewSeedCmd loads a YAML question file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if file == "" {
				file = cfg.Questions.File
			}

			questions, err := readQuestions(file)
			if err != nil {
				return err
			}

			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			if _, err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			n, err := postgres.SeedQuestions(cmd.Context(), db, questions)
			if err != nil {
				return err
			}
			log.Info("questions seeded", zap.String("file", file), zap.Int64("rows", n))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question file (defaults to questions.file, then the built-in sample)")
	return cmd
}

func readQuestions(file string) ([]domain.Question, error) {
	if file == "" {
		return memory.ParseQuestions(sampleQuestionsYAML)
	}
	return memory.LoadQuestionFile(file)
}
