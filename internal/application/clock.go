package application

import "time"

// Clock abstracts time.Now, biar timestamp bisa dipin di test
type Clock interface {
	Now() time.Time
}

// SystemClock dipakai di produksi
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
