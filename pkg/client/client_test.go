package client

import "testing"

func TestRender(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"accepted", "NAMEACCEPTED alice", "You are now connected as alice"},
		{"chat", "MESSAGE alice: hello", "alice: hello"},
		{"system", "MESSAGE [System]: bob has left", "[System]: bob has left"},
		{"you are coordinator", "YOUARECOORDINATOR", "You have been designated as the coordinator."},
		{"coordinator is", "COORDINATORIS alice", "The current coordinator is: alice"},
		{
			"member details",
			"MEMBERDETAILS 1|alice|127.0.0.1|50001 3|bob|10.0.0.2|50044 COORDINATOR:alice",
			"Member details:\n  1 | alice | 127.0.0.1 | 50001\n  3 | bob | 10.0.0.2 | 50044\n  COORDINATOR:alice",
		},
		{"unknown passes through", "something else", "something else"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.in); got != tc.want {
				t.Fatalf("Render(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
