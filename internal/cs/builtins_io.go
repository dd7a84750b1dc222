package cs

import (
	"errors"
	"fmt"
)

func registerIOLib(s *State) {
	s.mustCommand("exec", "sb", func(cs *State, args []Value) error {
		file := args[0].GetStr()
		if err := cs.ExecFile(file); err != nil {
			var cerr *Error
			if errors.As(err, &cerr) || errors.Is(err, errBreak) || errors.Is(err, errContinue) {
				return err
			}
			if args[1].GetInt() != 0 {
				cs.sink(fmt.Sprintf("could not run file %q", file))
			}
			cs.SetResultInt(0)
			return nil
		}
		cs.SetResultInt(1)
		return nil
	})

	s.mustCommand("echo", "C", func(cs *State, args []Value) error {
		fmt.Fprintln(cs.out, args[0].GetStr())
		return nil
	})
}
