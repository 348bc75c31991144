package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/invigilo/proctord/pkg/config"
	"github.com/invigilo/proctord/pkg/logger"
	"github.com/invigilo/proctord/pkg/media"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jobsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_jobs_total",
	Help: "Snapshot jobs by terminal outcome.",
}, []string{"outcome"})

// ContextFunc yields the current assessment context at capture time,
// nil when none is known.
type ContextFunc func() *Context

// Pipeline captures still frames from a video source and persists them
// through the upload endpoint and the archive sink. Every job is
// terminal: a failure is reported and forgotten, the next tick fires
// regardless.
type Pipeline struct {
	src      media.Source
	peer     string
	interval time.Duration
	ctxFn    ContextFunc
	uploader *Uploader
	archive  Storage
	maxWidth int
	quality  int
	log      *logger.Logger

	// OnOutcome surfaces the terminal job to the UI layer, best-effort.
	OnOutcome func(job Job)
}

func NewPipeline(conf config.Snapshot, peer string, src media.Source, ctxFn ContextFunc,
	uploader *Uploader, archive Storage, log *logger.Logger) *Pipeline {
	if archive == nil {
		archive = NoopStorage{}
	}
	if ctxFn == nil {
		ctxFn = func() *Context { return nil }
	}
	return &Pipeline{
		src:      src,
		peer:     peer,
		interval: conf.Interval,
		ctxFn:    ctxFn,
		uploader: uploader,
		archive:  archive,
		maxWidth: conf.MaxWidth,
		quality:  conf.Quality,
		log:      log,
	}
}

// Run drives the automatic mode until ctx is done. Ticks with no
// available frame are skipped entirely, no partial job is created.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.log.Info().Msgf("snapshot pipeline started, tick %v", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.log.Debug().Msg("snapshot pipeline stopped")
			return
		case <-ticker.C:
			if _, err := p.src.Frame(); err != nil {
				p.log.Debug().Msg("no local media, snapshot tick skipped")
				continue
			}
			job := p.Capture(ctx, p.peer, p.src, p.ctxFn())
			p.report(job)
		}
	}
}

// Capture runs one job to its terminal outcome: encode, archive, and
// upload when an assessment context is known. Used directly by the
// console for operator-requested snapshots of a remote stream.
func (p *Pipeline) Capture(ctx context.Context, peer string, src media.Source, actx *Context) Job {
	job := Job{SourcePeer: peer, CapturedAt: time.Now(), Context: actx, Outcome: Pending}

	frame, err := src.Frame()
	if err != nil {
		job.Outcome, job.Err = Failed, err
		return job
	}
	job.Image, err = media.EncodeJPEG(frame, p.maxWidth, p.quality)
	if err != nil {
		job.Outcome, job.Err = Failed, err
		return job
	}

	if err := p.archive.Save(p.name(&job), job.Image); err != nil {
		// The archive is the operator's own record; a miss there doesn't
		// fail the job, the upload outcome does.
		p.log.Error().Err(err).Msg("snapshot archive")
	}

	if actx == nil || actx.AttemptId == "" {
		job.Outcome = SkippedNoContext
		return job
	}
	if err := p.uploader.Upload(ctx, &job); err != nil {
		p.log.Error().Err(err).Str("peer", peer).Msg("snapshot upload")
		job.Outcome, job.Err = Failed, err
		return job
	}
	job.Outcome = Uploaded
	return job
}

func (p *Pipeline) report(job Job) {
	jobsMetric.WithLabelValues(job.Outcome.String()).Inc()
	p.log.Debug().Str("peer", job.SourcePeer).Msgf("snapshot %v", job.Outcome)
	if p.OnOutcome != nil {
		p.OnOutcome(job)
	}
}

// Report is the manual-mode counterpart of the internal tick reporting.
func (p *Pipeline) Report(job Job) { p.report(job) }

func (p *Pipeline) name(job *Job) string {
	return fmt.Sprintf("%s-%d.jpg", job.SourcePeer, job.CapturedAt.UnixMilli())
}
