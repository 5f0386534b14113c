// Package queue provides a host-side accelerator queue for submitting
// kernels, modelled on a SYCL queue.
//
// Kernels run on a bounded worker pool. A queue created WithInOrder runs
// each submission to completion before starting the next one; otherwise
// submissions may overlap. Every submission returns an Event whose Wait
// reports the kernel's error, including a recovered panic:
//
//	q, err := queue.New(queue.WithInOrder(true))
//	// ...
//	defer q.Close()
//	ev := q.SingleTask(ctx, func(ctx context.Context) error {
//		return dev.IntP(dst, int32(dev.MyPE()), next)
//	})
//	if err := ev.Wait(); err != nil {
//		// ...
//	}
package queue
