package fat_test

import (
	"encoding/binary"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/turbokube/fatmacho/pkg/fat"
	"github.com/turbokube/fatmacho/pkg/testcases"
)

func mockFat() []byte {
	w := fat.NewWriter()
	Expect(w.Add(testcases.MockExecutable("x86_64", 400))).To(Succeed())
	Expect(w.Add(testcases.MockArchive("arm64", 2))).To(Succeed())
	return write(w)
}

func TestReaderNotFat(t *testing.T) {
	RegisterTestingT(t)

	for name, b := range map[string][]byte{
		"empty":  nil,
		"short":  {0xca, 0xfe, 0xba},
		"thin":   testcases.MockExecutable("x86_64", 100),
		"thin32": testcases.MockExecutable("armv7", 100),
		"ar":     testcases.MockArchive("arm64", 1),
		"count0": {0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 0},
		"trunc":  {0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 1, 0, 0, 0, 7},
		"java":   {0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 0x34, 1, 2, 3, 4},
	} {
		_, err := fat.NewReader(b)
		Expect(err).To(MatchError(fat.ErrNotFat), name)
	}
}

func TestReaderMalformedTable(t *testing.T) {
	RegisterTestingT(t)

	valid := mockFat()
	_, err := fat.NewReader(valid)
	Expect(err).NotTo(HaveOccurred())

	// cut inside the last slice
	_, err = fat.NewReader(valid[:len(valid)-1])
	Expect(err).To(MatchError(fat.ErrNotFat))

	// offset beyond the buffer
	b := append([]byte{}, valid...)
	binary.BigEndian.PutUint32(b[8+20+8:], 0xfffffff0)
	_, err = fat.NewReader(b)
	Expect(err).To(MatchError(fat.ErrNotFat))

	// offset inside the header
	b = append([]byte{}, valid...)
	binary.BigEndian.PutUint32(b[8+8:], 4)
	_, err = fat.NewReader(b)
	Expect(err).To(MatchError(fat.ErrNotFat))

	// absurd alignment
	b = append([]byte{}, valid...)
	binary.BigEndian.PutUint32(b[8+16:], 64)
	_, err = fat.NewReader(b)
	Expect(err).To(MatchError(fat.ErrNotFat))
}

func TestReaderZeroCopy(t *testing.T) {
	RegisterTestingT(t)

	b := mockFat()
	r, err := fat.NewReader(b)
	Expect(err).NotTo(HaveOccurred())
	x86, ok := r.Extract("x86_64")
	Expect(ok).To(BeTrue())
	Expect(cap(x86)).To(Equal(len(x86)))

	s := r.Slices()[0]
	b[s.Offset+100] ^= 0xff
	Expect(x86[100]).To(Equal(b[s.Offset+100]))
}

func TestReaderConcurrentExtract(t *testing.T) {
	RegisterTestingT(t)

	r, err := fat.NewReader(mockFat())
	Expect(err).NotTo(HaveOccurred())
	var wg sync.WaitGroup
	sizes := make([]int, 8)
	for i := range sizes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "x86_64"
			if i%2 == 1 {
				name = "arm64"
			}
			s, ok := r.Extract(name)
			if ok {
				sizes[i] = len(s)
			}
		}(i)
	}
	wg.Wait()
	for i, size := range sizes {
		Expect(size).To(BeNumerically(">", 0), "goroutine %d", i)
	}
}
