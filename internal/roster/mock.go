package roster

import (
	"context"
	"database/sql"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use. Unset funcs fall back to an in-memory roster.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	GetTeamFunc        func(ctx context.Context, teamID string) (*Team, error)
	GetTeamMembersFunc func(ctx context.Context, teamID string) ([]Member, error)

	// Call records
	GetTeamMembersCalls []string
	SetRatingCalls      []struct {
		TeamID string
		Rating int
	}

	teams   map[string]*Team
	members map[string][]Member
}

var _ Store = (*MockStore)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{
		teams:   make(map[string]*Team),
		members: make(map[string][]Member),
	}
}

// Seed registers a team and its members with the mock.
func (m *MockStore) Seed(team Team, members ...Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := team
	m.teams[team.ID] = &t
	for i := range members {
		members[i].TeamID = team.ID
	}
	m.members[team.ID] = append(m.members[team.ID], members...)
}

func (m *MockStore) CreateTeam(ctx context.Context, name, homeZone, category, captainID string) (*Team, error) {
	team := Team{ID: name, Name: name, HomeZone: homeZone, Category: category, Rating: DefaultRating, CaptainID: captainID}
	m.Seed(team, Member{UserID: captainID, Role: RoleAdmin, Status: StatusActive})
	return &team, nil
}

func (m *MockStore) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	if m.GetTeamFunc != nil {
		return m.GetTeamFunc(ctx, teamID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockStore) AddMember(ctx context.Context, teamID, userID string, role Role, status MemberStatus) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member := Member{TeamID: teamID, UserID: userID, Role: role, Status: status}
	m.members[teamID] = append(m.members[teamID], member)
	return &member, nil
}

func (m *MockStore) SetMemberStatus(ctx context.Context, teamID, userID string, status MemberStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, member := range m.members[teamID] {
		if member.UserID == userID {
			m.members[teamID][i].Status = status
			return nil
		}
	}
	return ErrMemberNotFound
}

func (m *MockStore) GetTeamMembers(ctx context.Context, teamID string) ([]Member, error) {
	m.mu.Lock()
	m.GetTeamMembersCalls = append(m.GetTeamMembersCalls, teamID)
	fn := m.GetTeamMembersFunc
	members := append([]Member(nil), m.members[teamID]...)
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, teamID)
	}
	return members, nil
}

func (m *MockStore) TransferCaptaincy(ctx context.Context, teamID, newCaptainID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, member := range m.members[teamID] {
		switch {
		case member.UserID == newCaptainID:
			m.members[teamID][i].Role = RoleAdmin
		case member.Role == RoleAdmin:
			m.members[teamID][i].Role = RoleSubAdmin
		}
	}
	if t, ok := m.teams[teamID]; ok {
		t.CaptainID = newCaptainID
	}
	return nil
}

func (m *MockStore) SetRating(ctx context.Context, teamID string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetRatingCalls = append(m.SetRatingCalls, struct {
		TeamID string
		Rating int
	}{teamID, rating})
	if t, ok := m.teams[teamID]; ok {
		t.Rating = rating
	}
	return nil
}

func (m *MockStore) WithTx(tx *sql.Tx) Store {
	return m
}
