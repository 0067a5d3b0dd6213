package services

import (
	"context"
	"log"
	"loketkita/src/lib/metrics"
	"loketkita/src/models"
	"loketkita/src/models/scopes"
	"loketkita/src/types"
	"time"

	"gorm.io/gorm"
)

const (
	SweepAutoExpire  = "auto_expire_transactions"
	SweepAutoCancel  = "auto_cancel_transactions"
	SweepPointExpiry = "expire_points"
)

type SweepResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Sweeper pushes transactions stuck past a deadline into their terminal
// failure state. Each row settles in its own database transaction, so one bad
// row never blocks the rest of the batch.
type Sweeper struct {
	txs *TransactionService
	db  *gorm.DB
}

func NewSweeper(txs *TransactionService) *Sweeper {
	return &Sweeper{txs: txs, db: txs.db}
}

func (s *Sweeper) AutoExpireTransactions(ctx context.Context) (SweepResult, error) {
	now := s.txs.now()
	return s.sweepTransactions(ctx, SweepAutoExpire, scopes.PaymentOverdue(now), s.txs.Expire)
}

func (s *Sweeper) AutoCancelTransactions(ctx context.Context) (SweepResult, error) {
	cutoff := s.txs.now().Add(-s.txs.settings.ConfirmationWindow)
	return s.sweepTransactions(ctx, SweepAutoCancel, scopes.ConfirmationOverdue(cutoff), s.txs.Cancel)
}

func (s *Sweeper) ExpirePoints(ctx context.Context) (SweepResult, error) {
	job := s.startJob(ctx, SweepPointExpiry)
	started := time.Now()
	result, err := s.txs.ledger.SweepExpired(ctx, s.txs.now())
	s.finishJob(ctx, job, result, err)
	metrics.TrackSweep(SweepPointExpiry, result.Processed, result.Skipped, result.Failed, time.Since(started))
	return result, err
}

type settleFunc func(ctx context.Context, txn *models.Transaction) (bool, error)

func (s *Sweeper) sweepTransactions(ctx context.Context, name string, scope func(*gorm.DB) *gorm.DB, settle settleFunc) (SweepResult, error) {
	job := s.startJob(ctx, name)
	started := time.Now()
	var result SweepResult

	var rows []models.Transaction
	err := s.db.WithContext(ctx).Scopes(scope).Order("created_at").Find(&rows).Error
	if err != nil {
		log.Printf("[%s] Error loading transactions: %s\n", name, err.Error())
		s.finishJob(ctx, job, result, err)
		return result, err
	}

	for i := range rows {
		if ctx.Err() != nil {
			break
		}
		ok, err := settle(ctx, &rows[i])
		switch {
		case err != nil:
			result.Failed++
			log.Printf("[%s] Error settling transaction %s: %s\n", name, rows[i].ID, err.Error())
		case !ok:
			result.Skipped++
		default:
			result.Processed++
		}
	}

	log.Printf("[%s] processed=%d skipped=%d failed=%d\n", name, result.Processed, result.Skipped, result.Failed)
	s.finishJob(ctx, job, result, nil)
	metrics.TrackSweep(name, result.Processed, result.Skipped, result.Failed, time.Since(started))
	return result, ctx.Err()
}

func (s *Sweeper) startJob(ctx context.Context, name string) *models.JobTask {
	job := models.JobTask{
		Name:    name,
		JobType: "sweep",
		RunsAt:  s.txs.now(),
		Status:  types.JOB_RUNNING,
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		log.Printf("[%s] Error recording job run: %s\n", name, err.Error())
		return nil
	}
	return &job
}

func (s *Sweeper) finishJob(ctx context.Context, job *models.JobTask, result SweepResult, runErr error) {
	if job == nil {
		return
	}
	finished := s.txs.now()
	updates := map[string]any{
		"status":      types.JOB_DONE,
		"finished_at": finished,
		"payload": types.JSONB{
			"processed": result.Processed,
			"skipped":   result.Skipped,
			"failed":    result.Failed,
		},
	}
	if runErr != nil {
		updates["status"] = types.JOB_FAILED
		updates["error"] = runErr.Error()
	}
	err := s.db.WithContext(context.WithoutCancel(ctx)).
		Model(&models.JobTask{}).
		Where("id = ?", job.ID).
		Updates(updates).
		Error
	if err != nil {
		log.Printf("[%s] Error finishing job run: %s\n", job.Name, err.Error())
	}
}

// FailStaleRuns marks runs still recorded as running after olderThan as
// failed. Those belong to a process that died mid-sweep.
func (s *Sweeper) FailStaleRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := s.txs.now()
	res := s.db.WithContext(ctx).
		Model(&models.JobTask{}).
		Where("status = ?", types.JOB_RUNNING).
		Where("runs_at < ?", now.Add(-olderThan)).
		Updates(map[string]any{
			"status":      types.JOB_FAILED,
			"finished_at": now,
			"error":       "interrupted",
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[Sweeper] Marked %d interrupted runs as failed\n", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// LastRun returns the most recent recorded run of the named sweep.
func (s *Sweeper) LastRun(ctx context.Context, name string) (*models.JobTask, error) {
	var job models.JobTask
	err := s.db.WithContext(ctx).Where("name = ?", name).Order("runs_at DESC").First(&job).Error
	if err != nil {
		return nil, lookupError(err, "JobTask")
	}
	return &job, nil
}
