package xshmem_test

import (
	"context"
	"fmt"

	"github.com/srediag/xshmem/adapter"
	"github.com/srediag/xshmem/api"
	"github.com/srediag/xshmem/pkg/queue"
	"github.com/srediag/xshmem/pkg/shmemtest"
	"github.com/srediag/xshmem/pkg/xshmem"
)

// A one-PE world stands in for a launched job so the example runs anywhere.
func Example() {
	ctx := context.Background()
	w, err := shmemtest.NewWorld(ctx, 1)
	if err != nil {
		panic(err)
	}
	defer w.Close()

	reg := adapter.NewRegistry()
	reg.Register(api.SHMEM, w.Constructor(0))
	sel := xshmem.NewSelector(
		xshmem.WithRegistry(reg),
		xshmem.WithLookupEnv(func(string) (string, bool) { return "SHMEM", true }),
	)

	shmem, err := sel.CreateFromEnv()
	if err != nil {
		panic(err)
	}
	if err := shmem.Init(); err != nil {
		panic(err)
	}
	fmt.Printf("Hello from PE %d out of %d\n", shmem.MyPE(), shmem.NPEs())
	if err := shmem.Finalize(); err != nil {
		panic(err)
	}
	// Output: Hello from PE 0 out of 1
}

func ExampleStatic_Device() {
	ctx := context.Background()
	w, err := shmemtest.NewWorld(ctx, 2)
	if err != nil {
		panic(err)
	}
	defer w.Close()

	results := make([]int32, 2)
	err = w.Run(ctx, func(ctx context.Context, pe api.OpenSHMEM) error {
		shmem := xshmem.Bind(pe.(*shmemtest.PE))
		if err := shmem.Init(); err != nil {
			return err
		}
		q, err := queue.New(queue.WithWorkers(1))
		if err != nil {
			return err
		}
		defer q.Close()

		dst, err := shmem.Calloc(1, api.IntSize)
		if err != nil {
			return err
		}
		if err := shmem.BarrierAll(); err != nil {
			return err
		}
		dev := shmem.Device()
		err = q.SingleTask(ctx, func(context.Context) error {
			return dev.IntP(dst, int32(dev.MyPE()), (dev.MyPE()+1)%dev.NPEs())
		}).Wait()
		if err != nil {
			return err
		}
		if err := shmem.BarrierAll(); err != nil {
			return err
		}
		results[shmem.MyPE()] = api.Int32s(dst, 1)[0]
		if err := shmem.Free(dst); err != nil {
			return err
		}
		return shmem.Finalize()
	})
	if err != nil {
		panic(err)
	}
	fmt.Println(results)
	// Output: [1 0]
}
