// Package jobs agrupa as tarefas agendadas do serviço.
package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ferreirogomes/solimare/services"
)

// ExpiryJob roda o sweep que rejeita propostas pendentes cujo expires_at
// venceu. A expiração é uma transição explícita e agendável, não um efeito
// colateral de leitura.
type ExpiryJob struct {
	Service *services.CoownershipService
	cron    *cron.Cron
}

// NewExpiryJob agenda o sweep conforme a spec cron informada (ex: "@every 1m").
func NewExpiryJob(service *services.CoownershipService, spec string) (*ExpiryJob, error) {
	job := &ExpiryJob{
		Service: service,
		cron:    cron.New(),
	}
	if _, err := job.cron.AddFunc(spec, job.Run); err != nil {
		return nil, err
	}
	return job, nil
}

// Run executa um passe do sweep imediatamente.
func (j *ExpiryJob) Run() {
	n, err := j.Service.ExpireProposals(time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Error("Sweep de expiração de propostas falhou")
		return
	}
	if n > 0 {
		logrus.WithField("rejected", n).Info("Propostas pendentes expiradas")
	}
}

// Start inicia o agendador em background.
func (j *ExpiryJob) Start() {
	j.cron.Start()
}

// Stop para o agendador e espera o passe em andamento terminar.
func (j *ExpiryJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}
