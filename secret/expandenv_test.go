package secret

import (
	"errors"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("NAVKIT_TEST_HOST", "redis.internal")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "braced", in: "redis://${NAVKIT_TEST_HOST}:6379", want: "redis://redis.internal:6379"},
		{name: "bare", in: "$NAVKIT_TEST_HOST", want: "redis.internal"},
		{name: "escaped dollar", in: "pa$$word", want: "pa$word"},
		{name: "missing", in: "${NAVKIT_TEST_UNSET_B}-${NAVKIT_TEST_UNSET_A}", wantErr: ErrMissingEnv},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if err.Error() != "secret: missing environment variables: NAVKIT_TEST_UNSET_A, NAVKIT_TEST_UNSET_B" {
					t.Errorf("error text = %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
