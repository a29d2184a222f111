package s3

import "testing"

func TestObjectKey(t *testing.T) {
	cases := map[[2]string]string{
		{"", "a.jpg"}:            "a.jpg",
		{"photos", "a.jpg"}:      "photos/a.jpg",
		{"photos/", "sub/b.png"}: "photos/sub/b.png",
	}
	for in, want := range cases {
		if got := ObjectKey(in[0], in[1]); got != want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
