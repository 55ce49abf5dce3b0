package auctionsvc

import "time"

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
