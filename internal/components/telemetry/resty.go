package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_transfer_start  = "transfer.start"
	report_transfer_finish = "transfer.finish"
	report_transfer_failed = "transfer.failed"
	report_transfer_bytes  = "transfer.bytes"
)

type transferKeyType int

var transferKey transferKeyType

type transfer struct {
	seq     uint64
	started time.Time
}

// InstrumentResty reports the start, the end and the size of every transfer
// made by the client.
func InstrumentResty(client *resty.Client, tel API) {
	var seq atomic.Uint64

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		t := transfer{seq: seq.Add(1), started: time.Now()}
		req.SetContext(context.WithValue(req.Context(), transferKey, t))
		tel.ReportDebug(report_transfer_start, t.seq, req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		t, _ := res.Request.Context().Value(transferKey).(transfer)
		tel.ReportDebug(
			report_transfer_finish,
			t.seq,
			res.Status(),
			time.Since(t.started).String(),
		)
		if res.RawResponse != nil && res.RawResponse.ContentLength > 0 {
			tel.ReportCount(report_transfer_bytes, res.RawResponse.ContentLength)
		}
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		t, ok := req.Context().Value(transferKey).(transfer)
		var elapsed time.Duration
		if ok {
			elapsed = time.Since(t.started)
		}
		tel.ReportBroken(report_transfer_failed, err, req.Method, req.URL, elapsed)
	})
}
