package teams

import "errors"

// ErrTeamNotFound is returned when no team matches the lookup.
var ErrTeamNotFound = errors.New("team not found")

// CreateTeamRequest represents the data needed to register a team
type CreateTeamRequest struct {
	Name            string  `json:"name" validate:"required"`
	Owner           string  `json:"owner" validate:"required"`
	CoOwnerName     *string `json:"coowner_name,omitempty"`
	Batch           string  `json:"batch" validate:"required"`
	Price           float64 `json:"price"`
	NumberOfMembers int     `json:"number_of_members"`
	LogoFilename    *string `json:"logo_filename,omitempty"`
}

// TeamSummary is the public listing shape of a team.
type TeamSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Batch string `json:"batch"`
}

func strPtr(s string) *string { return &s }

// SampleTeams are registered on an empty directory.
func SampleTeams() []CreateTeamRequest {
	return []CreateTeamRequest{
		{Name: "Team Alpha", Owner: "John Doe", CoOwnerName: strPtr("Jane Doe"), Batch: "CSE 1", Price: 50000, NumberOfMembers: 12},
		{Name: "Team Beta", Owner: "Jane Smith", Batch: "CSE 2", Price: 45000, NumberOfMembers: 12},
		{Name: "Team Gamma", Owner: "Mike Johnson", CoOwnerName: strPtr("Lisa Johnson"), Batch: "CSE 1", Price: 55000, NumberOfMembers: 12},
		{Name: "Team Delta", Owner: "Sarah Williams", Batch: "CSE 3", Price: 48000, NumberOfMembers: 12},
	}
}
