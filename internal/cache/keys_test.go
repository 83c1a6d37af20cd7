package cache

import "testing"

func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name        string
		objectType  string
		identifier  string
		params      []string
		expectedKey string
	}{
		{
			name:        "without params",
			objectType:  "session",
			identifier:  "abc123",
			params:      nil,
			expectedKey: "quizsync:session:abc123",
		},
		{
			name:        "with empty params",
			objectType:  "session",
			identifier:  "abc123",
			params:      []string{},
			expectedKey: "quizsync:session:abc123",
		},
		{
			name:        "with one param",
			objectType:  "queue",
			identifier:  "xyz",
			params:      []string{"pending"},
			expectedKey: "quizsync:queue:xyz:pending",
		},
		{
			name:        "with multiple params",
			objectType:  "queue",
			identifier:  "xyz",
			params:      []string{"p1", "p2"},
			expectedKey: "quizsync:queue:xyz:p1_p2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actualKey := GenerateKey(tt.objectType, tt.identifier, tt.params...)
			if actualKey != tt.expectedKey {
				t.Errorf("GenerateKey() = %v, want %v", actualKey, tt.expectedKey)
			}
		})
	}
}

func TestSessionStateKey(t *testing.T) {
	if got := SessionStateKey("sess-1"); got != "quizsync:session:state:sess-1" {
		t.Errorf("SessionStateKey() = %v", got)
	}
}
