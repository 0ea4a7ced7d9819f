package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users           *UserRepository
	Recommendations *RecommendationRepository
	Detections      *DetectionRepository
}

// NewRepositories wires all repositories on the same executor, normally a *pgxpool.Pool.
func NewRepositories(exec pgExecutor) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(exec),
		Recommendations: NewRecommendationRepository(exec),
		Detections:      NewDetectionRepository(exec),
	}
}
