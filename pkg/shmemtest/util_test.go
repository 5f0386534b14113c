package shmemtest

import "github.com/srediag/xshmem/internal/shm"

func errInvalidFree() error { return shm.ErrInvalidFree }
