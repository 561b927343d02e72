package window

import "testing"

type MockObserver struct {
	observation *Observation
	isAvailable bool
	platform    string
	closeError  error
}

func (m *MockObserver) Poll() (*Observation, error) {
	return m.observation, nil
}

func (m *MockObserver) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockObserver) Platform() string {
	return m.platform
}

func (m *MockObserver) Close() error {
	return m.closeError
}

func TestMockObserver(t *testing.T) {
	var _ Observer = (*MockObserver)(nil)

	mock := &MockObserver{
		observation: &Observation{
			Name:        "TestApp",
			Title:       "Test Window",
			ProcessPath: "/usr/bin/test",
		},
		isAvailable: true,
		platform:    "x11",
	}

	obs, err := mock.Poll()
	if err != nil {
		t.Errorf("Poll() error: %v", err)
	}
	if obs.Name != "TestApp" {
		t.Errorf("Name = %s, want TestApp", obs.Name)
	}

	if !mock.IsAvailable() {
		t.Error("IsAvailable() = false, want true")
	}

	if mock.Platform() != "x11" {
		t.Errorf("Platform() = %s, want x11", mock.Platform())
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNilObservationIsNeutral(t *testing.T) {
	mock := &MockObserver{isAvailable: true, platform: "x11"}

	obs, err := mock.Poll()
	if err != nil {
		t.Errorf("Poll() error: %v", err)
	}
	if obs != nil {
		t.Errorf("Poll() = %+v, want nil for no-window case", obs)
	}
}
