package turn

import (
	"sync"
	"time"

	"github.com/yungbote/interviewcoach-backend/internal/platform/logger"
)

// ReplyFunc delivers the interviewer's reply for a finalized turn.
type ReplyFunc func(text string)

// FinalizeFunc receives the settled utterance once the speaker has paused.
type FinalizeFunc func(text string, reply ReplyFunc)

type DebounceConfig struct {
	// ShortDelay applies to fragments with fewer than ShortWords words;
	// a one-word fragment is usually the start of a sentence.
	ShortDelay time.Duration
	LongDelay  time.Duration
	ShortWords int
}

func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		ShortDelay: 900 * time.Millisecond,
		LongDelay:  750 * time.Millisecond,
		ShortWords: 2,
	}
}

// Debouncer coalesces cumulative partial transcripts into one finalized
// utterance per pause. Each fragment replaces the previous one and restarts
// the quiet timer; a timer only finalizes if no newer fragment has arrived.
type Debouncer struct {
	log        *logger.Logger
	cfg        DebounceConfig
	onFinalize FinalizeFunc

	mu      sync.Mutex
	seq     uint64
	pending string
	reply   ReplyFunc
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(log *logger.Logger, cfg DebounceConfig, onFinalize FinalizeFunc) *Debouncer {
	def := DefaultDebounceConfig()
	if cfg.ShortDelay <= 0 {
		cfg.ShortDelay = def.ShortDelay
	}
	if cfg.LongDelay <= 0 {
		cfg.LongDelay = def.LongDelay
	}
	if cfg.ShortWords <= 0 {
		cfg.ShortWords = def.ShortWords
	}
	return &Debouncer{
		log:        log.With("component", "TurnDebouncer"),
		cfg:        cfg,
		onFinalize: onFinalize,
	}
}

// Push records text as the latest fragment of the current utterance.
func (d *Debouncer) Push(text string, reply ReplyFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = text
	d.reply = reply
	delay := d.delayFor(text)
	d.timer = time.AfterFunc(delay, func() { d.fire(seq) })
	d.log.Debug("fragment buffered", "seq", seq, "delay_ms", delay.Milliseconds())
}

func (d *Debouncer) delayFor(text string) time.Duration {
	if wordCount(text) < d.cfg.ShortWords {
		return d.cfg.ShortDelay
	}
	return d.cfg.LongDelay
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq || d.pending == "" {
		d.mu.Unlock()
		return
	}
	text, reply := d.pending, d.reply
	d.pending, d.reply, d.timer = "", nil, nil
	d.mu.Unlock()

	d.log.Debug("utterance finalized", "seq", seq, "words", wordCount(text))
	d.onFinalize(text, reply)
}

// Flush finalizes any buffered fragment immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.mu.Unlock()
	d.fire(seq)
}

// Stop cancels any pending finalize and ignores further fragments.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending, d.reply = "", nil
}
