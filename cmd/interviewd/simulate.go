package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/interviewcoach-backend/internal/app"
	"github.com/yungbote/interviewcoach-backend/internal/config"
	domain "github.com/yungbote/interviewcoach-backend/internal/domain/interview"
	"github.com/yungbote/interviewcoach-backend/internal/modules/interview"
	"github.com/yungbote/interviewcoach-backend/internal/realtime"
)

var simulateFlags struct {
	setup     string
	scenario  string
	candidate string
	settle    time.Duration
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one session on the terminal, one candidate line per stdin line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSimulate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.setup, "setup", "", "JSON file with scenario, persona, resume and job_description")
	f.StringVar(&simulateFlags.scenario, "scenario", string(domain.ScenarioBehavioral), "scenario id when --setup is not given")
	f.StringVar(&simulateFlags.candidate, "candidate", "Candidate", "candidate name when --setup is not given")
	f.DurationVar(&simulateFlags.settle, "settle", 3*time.Second, "how long to wait for the last reply before ending")
}

type lineSpeaker struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *lineSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "interviewer> %s\n", text)
}

func (s *lineSpeaker) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func loadSetup() (interview.CreateInput, error) {
	if simulateFlags.setup == "" {
		return interview.CreateInput{
			Scenario: domain.Scenario{
				ID:              domain.ScenarioType(simulateFlags.scenario),
				Name:            strings.ReplaceAll(simulateFlags.scenario, "_", " ") + " interview",
				Difficulty:      domain.DifficultyMedium,
				DurationMinutes: 30,
			},
			Persona: domain.Persona{
				InterviewerName:  "Sarah",
				InterviewerTitle: "Engineering Manager",
				CompanyName:      "Acme",
				CandidateName:    simulateFlags.candidate,
				Demeanor:         domain.DemeanorProfessional,
				ProbingLevel:     domain.ProbingModerate,
				FeedbackStyle:    domain.FeedbackNeutral,
			},
		}, nil
	}
	raw, err := os.ReadFile(simulateFlags.setup)
	if err != nil {
		return interview.CreateInput{}, err
	}
	var in interview.CreateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return interview.CreateInput{}, fmt.Errorf("parse %s: %w", simulateFlags.setup, err)
	}
	return in, nil
}

func runSimulate(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	in, err := loadSetup()
	if err != nil {
		return err
	}

	speaker := &lineSpeaker{out: stdout}
	a, err := app.New(ctx, cfg, log,
		app.WithoutHTTP(),
		app.WithSpeaker(func(uuid.UUID) interview.Speaker { return speaker }),
	)
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	runCtx, stop := context.WithCancel(ctx)
	g, runCtx := errgroup.WithContext(runCtx)
	g.Go(func() error { return a.Run(runCtx) })

	sess, err := a.Manager.Create(ctx, in)
	if err != nil {
		stop()
		_ = g.Wait()
		return err
	}

	client := realtime.NewClient(0)
	if _, err := a.Manager.AttachObserver(sess.ID, client); err != nil {
		stop()
		_ = g.Wait()
		return err
	}
	g.Go(func() error {
		for msg := range client.Outbound() {
			if msg.Event == realtime.EventSpeech || msg.Event == realtime.EventTranscript {
				continue
			}
			data, _ := json.Marshal(msg.Data)
			speaker.printf("coach> %s %s\n", msg.Event, data)
		}
		return nil
	})

	if _, err := a.Manager.Join(ctx, sess.ID); err != nil {
		client.Close()
		stop()
		_ = g.Wait()
		return err
	}

	lines := bufio.NewScanner(stdin)
	for lines.Scan() {
		if ctx.Err() != nil {
			break
		}
		text := strings.TrimSpace(lines.Text())
		if text == "" {
			continue
		}
		if err := a.Manager.OnTranscriptFragment(sess.ID, text, nil); err != nil {
			log.Warn("fragment rejected", "error", err)
		}
	}

	_ = a.Manager.Flush(ctx, sess.ID)
	select {
	case <-ctx.Done():
	case <-time.After(simulateFlags.settle):
	}
	_ = a.Manager.Flush(context.WithoutCancel(ctx), sess.ID)

	transcript, _ := a.Manager.GetTranscript(context.WithoutCancel(ctx), sess.ID)
	state, stateErr := a.Manager.GetState(context.WithoutCancel(ctx), sess.ID)
	if _, err := a.Manager.End(context.WithoutCancel(ctx), sess.ID); err != nil {
		log.Warn("end session failed", "error", err)
	}
	client.Close()
	stop()
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Warn("background workers exited", "error", err)
	}

	ev := interview.Summarize(transcript)
	speaker.printf("\nturns: candidate=%d interviewer=%d words: candidate=%d interviewer=%d\n",
		ev.CandidateTurns, ev.InterviewerTurns, ev.CandidateWords, ev.InterviewerWords)
	if stateErr == nil {
		summary, _ := json.MarshalIndent(state, "", "  ")
		speaker.printf("final state: %s\n", summary)
	}
	return lines.Err()
}
