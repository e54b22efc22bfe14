package vidground

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/rand"
	"net/http"
	"os"
)

// Pad truncates or extends xs to padLen.
// padLen == -1 (or already matching) returns xs unchanged.
// If xs is longer, the prefix is kept; if shorter, copies of def are
// appended. def must be a value type (scalar or fixed-size array row) so
// that the appended fillers do not share storage; use PadFunc otherwise.
func Pad[T any](xs []T, padLen int, def T) []T {
	if padLen == -1 || len(xs) == padLen {
		return xs
	}
	if len(xs) > padLen {
		return xs[:padLen]
	}
	out := make([]T, padLen)
	copy(out, xs)
	for i := len(xs); i < padLen; i++ {
		out[i] = def
	}
	return out
}

// PadFunc is Pad for reference-typed elements (slices, tensors): def is
// called once per filler slot so no two slots alias the same storage.
func PadFunc[T any](xs []T, padLen int, def func() T) []T {
	if padLen == -1 || len(xs) == padLen {
		return xs
	}
	if len(xs) > padLen {
		return xs[:padLen]
	}
	out := make([]T, padLen)
	copy(out, xs)
	for i := len(xs); i < padLen; i++ {
		out[i] = def()
	}
	return out
}

func Clip(x, lo, hi int) int {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	} else {
		return x
	}
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SeedRand returns a rand.Rand seeded from the OS entropy pool, for
// callers that want fresh sampling rather than a reproducible seed.
func SeedRand() *rand.Rand {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic(err)
	}
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(b[:]))))
}

// NewSeededRand returns a rand.Rand with a fixed seed, for reproducible
// sampling.
func NewSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func ReadJSONFile(fname string, res interface{}) error {
	bytes, err := ioutil.ReadFile(fname)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, res)
}

func JsonMarshal(x interface{}) []byte {
	bytes, err := json.Marshal(x)
	if err != nil {
		panic(err)
	}
	return bytes
}

func FileExists(fname string) bool {
	_, err := os.Stat(fname)
	return err == nil
}

func JsonResponse(w http.ResponseWriter, x interface{}) {
	bytes := JsonMarshal(x)
	w.Header().Set("Content-Type", "application/json")
	w.Write(bytes)
}

// ParseJsonRequest decodes the request body into x, writing the HTTP
// error itself so callers can just return on failure.
func ParseJsonRequest(w http.ResponseWriter, r *http.Request, x interface{}) error {
	bytes, err := ioutil.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading request body: %v", err), 400)
		return err
	}
	if err := json.Unmarshal(bytes, x); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), 400)
		return err
	}
	return nil
}
