package hal

import (
	"fmt"
	"sync"
	"time"

	"cep-go/errcode"

	"tinygo.org/x/drivers"
)

// DefaultTxTimeout bounds each transaction on an owned bus.
const DefaultTxTimeout = 250 * time.Millisecond

type i2cReq struct {
	addr uint16
	w, r []byte // worker-owned copies
	done chan i2cResult
}

type i2cResult struct {
	r   []byte
	err error
}

// OwnedI2C serialises transactions on one worker goroutine and bounds each
// one with a timeout, so a wedged bus surfaces as errcode.Timeout rather than
// a hang. The worker never touches caller buffers: read data is copied back
// only when the transaction completes in time. Close releases the bus only
// after the worker has stopped. It satisfies I2CBus.
type OwnedI2C struct {
	hw      drivers.I2C
	timeout time.Duration
	release func() error

	reqs    chan i2cReq
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

var _ I2CBus = (*OwnedI2C)(nil)

// Own starts a worker for hw. release runs once, after the worker exits; it
// may be nil. timeout <= 0 selects DefaultTxTimeout.
func Own(hw drivers.I2C, timeout time.Duration, release func() error) *OwnedI2C {
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	o := &OwnedI2C{
		hw:      hw,
		timeout: timeout,
		release: release,
		reqs:    make(chan i2cReq, 4),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *OwnedI2C) loop() {
	defer close(o.stopped)
	for {
		select {
		case req := <-o.reqs:
			err := o.tx(req)
			select {
			case req.done <- i2cResult{r: req.r, err: err}:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

// tx runs one transaction, turning a driver panic into an error.
func (o *OwnedI2C) tx(req i2cReq) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errcode.New(errcode.Error, "i2c tx", fmt.Sprintf("addr %#02x: driver panic: %v", req.addr, p), nil)
		}
	}()
	return o.hw.Tx(req.addr, req.w, req.r)
}

// Tx implements drivers.I2C.
func (o *OwnedI2C) Tx(addr uint16, w, r []byte) error {
	select {
	case <-o.quit:
		return errcode.BusUnavailable
	default:
	}
	req := i2cReq{addr: addr, done: make(chan i2cResult, 1)}
	if len(w) > 0 {
		req.w = append([]byte(nil), w...)
	}
	if len(r) > 0 {
		req.r = make([]byte, len(r))
	}

	t := time.NewTimer(o.timeout)
	defer t.Stop()

	select {
	case o.reqs <- req:
	case <-o.quit:
		return errcode.BusUnavailable
	case <-t.C:
		return errcode.Busy
	}

	select {
	case res := <-req.done:
		if res.err == nil {
			copy(r, res.r)
		}
		return res.err
	case <-t.C:
		return errcode.Timeout
	}
}

// Close stops the worker and releases the underlying bus. It is idempotent.
// When a transaction is still running after one timeout period, Close
// returns errcode.Timeout and the release is deferred until the worker exits;
// the bus stays held until then.
func (o *OwnedI2C) Close() error {
	var err error
	o.once.Do(func() {
		close(o.quit)
		select {
		case <-o.stopped:
			if o.release != nil {
				err = o.release()
			}
		case <-time.After(o.timeout):
			go func() {
				<-o.stopped
				if o.release != nil {
					_ = o.release()
				}
			}()
			err = errcode.New(errcode.Timeout, "i2c close", "transaction in flight, release deferred", nil)
		}
	})
	return err
}
