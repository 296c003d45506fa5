package model

type ActiveChallenge struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Progress int    `json:"progress"`
	DaysLeft int    `json:"days_left"`
	Status   string `json:"status"` // Joined | In Progress | Completed
}

type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type ParticipantDashboard struct {
	OngoingChallenges int               `json:"ongoing_challenges"`
	CareerScore       int               `json:"career_score"`
	ActiveChallenges  []ActiveChallenge `json:"active_challenges"`
	Achievements      []Achievement     `json:"achievements"`
}

type CompanyDashboard struct {
	ActiveChallenges  int          `json:"active_challenges"`
	TotalSubmissions  int          `json:"total_submissions"`
	CandidatesEngaged int          `json:"candidates_engaged"`
	AverageScore      float64      `json:"average_score"`
	RecentSubmissions []Submission `json:"recent_submissions"`
	TopChallenges     []Challenge  `json:"top_challenges"`
}

// Candidate aggregates a participant's activity across a company's challenges.
type Candidate struct {
	UserID      string  `json:"user_id"`
	FullName    string  `json:"full_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Submissions int     `json:"submissions"`
	BestScore   *int    `json:"best_score,omitempty"`
}
