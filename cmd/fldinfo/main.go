// fldinfo prints the self-described metadata of nek5000 field files:
// word size, polynomial orders, element counts, simulation time and
// step, sharding fields, variable spec and byte order.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/cfdio/go-native-nek5000/nek/field"
)

var verbose = pflag.BoolP("verbose", "v", false, "log codec details to stderr")

func main() {
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: fldinfo [flags] <file>...")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}
	if *verbose {
		field.SetLogLevel(3)
	}

	status := 0
	for _, fname := range pflag.Args() {
		if err := show(fname); err != nil {
			fmt.Fprintf(os.Stderr, "fldinfo: %s: %v\n", fname, err)
			status = 1
		}
	}
	os.Exit(status)
}

func show(fname string) error {
	file, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer file.Close()

	h, order, err := field.ReadHeader(bufio.NewReader(file))
	if err != nil {
		return err
	}

	fmt.Printf("%s:\n", fname)
	fmt.Printf("  word size   %d\n", h.WordSize)
	fmt.Printf("  orders      %d x %d x %d (%d points/element, %d-D)\n",
		h.Orders[0], h.Orders[1], h.Orders[2], h.NPtsElem, h.NDim)
	fmt.Printf("  elements    %d (%d in this file)\n", h.NElems, h.NElemsFile)
	fmt.Printf("  time        %g (step %d)\n", h.Time, h.Step)
	fmt.Printf("  file        %d of %d\n", h.FileID, h.NFiles)
	fmt.Printf("  variables   %s (counts %v)\n", h.Variables, h.Counts)
	fmt.Printf("  byte order  %v\n", order)
	return nil
}
