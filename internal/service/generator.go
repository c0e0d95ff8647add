package service

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/jobmarket/internal/model"
)

var (
	titlePrefixes = []string{"Senior", "Junior", "Lead", "Remote", "Part-time", "Contract", "Principal", "Staff"}
	titleRoles    = []string{
		"Smart Contract Developer", "Frontend Engineer", "Backend Engineer", "Community Manager",
		"Product Designer", "Data Analyst", "DevOps Engineer", "Technical Writer",
		"Security Auditor", "Growth Marketer", "QA Engineer", "Mobile Developer",
	}
	descriptionSubjects = []string{
		"Build and maintain", "Design and ship", "Audit and improve", "Own end to end",
		"Prototype and launch", "Scale and monitor",
	}
	descriptionObjects = []string{
		"a voucher redemption flow", "on-chain reward distribution", "our marketplace dashboard",
		"wallet onboarding for new users", "the staking analytics pipeline", "merchant integrations",
		"compressed NFT minting", "the partner API",
	}
)

// GenerateJobs создаёт n случайных вакансий. Первая вакансия самая новая:
// время создания убывает с шагом в одну миллисекунду, начиная с now.
// Награда кратна 10 и лежит в диапазоне [500, 5490].
func GenerateJobs(n int, rng *rand.Rand, now time.Time) []model.Job {
	now = now.UTC().Truncate(time.Microsecond)
	jobs := make([]model.Job, 0, n)

	for i := 0; i < n; i++ {
		jobType := model.JobTypeStable
		if rng.IntN(2) == 1 {
			jobType = model.JobTypeFreelance
		}

		jobs = append(jobs, model.Job{
			ID:    uuid.NewString(),
			Title: fmt.Sprintf("%s %s", pick(rng, titlePrefixes), pick(rng, titleRoles)),
			Description: fmt.Sprintf("%s %s. %s %s.",
				pick(rng, descriptionSubjects), pick(rng, descriptionObjects),
				pick(rng, descriptionSubjects), pick(rng, descriptionObjects)),
			Type:      jobType,
			Reward:    int64(rng.IntN(500)+50) * 10,
			CreatedAt: now.Add(-time.Duration(i) * time.Millisecond),
		})
	}

	return jobs
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
