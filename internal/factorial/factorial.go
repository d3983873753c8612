package factorial

import (
	"fmt"
	"io"
)

// Input is the fixed argument of the entry routine.
const Input int64 = 12

// Printer receives every intermediate product as the recursion unwinds.
type Printer interface {
	Print(v int64)
}

// PrinterFunc adapts a plain function to Printer
type PrinterFunc func(v int64)

// Print calls f(v)
func (f PrinterFunc) Print(v int64) {
	f(v)
}

// WriterPrinter writes one value per line
type WriterPrinter struct {
	w io.Writer
}

// NewPrinter creates a printer that emits to w
func NewPrinter(w io.Writer) *WriterPrinter {
	return &WriterPrinter{w: w}
}

// Print writes v followed by a newline
func (p *WriterPrinter) Print(v int64) {
	fmt.Fprintln(p.w, v)
}

// Collector keeps intermediates in call-return order
type Collector struct {
	Values []int64
}

// Print appends v
func (c *Collector) Print(v int64) {
	c.Values = append(c.Values, v)
}

// Factorial returns n! computed recursively. Every product except the base
// case is passed to p before it is returned, so p sees 2!, 3!, ..., n!.
// A nil printer discards the intermediates.
func Factorial(n int64, p Printer) int64 {
	if n <= 1 {
		return 1
	}

	product := n * Factorial(n-1, p)
	if p != nil {
		p.Print(product)
	}
	return product
}

// Run is the entry routine: Factorial(Input) reported through p.
func Run(p Printer) int64 {
	return Factorial(Input, p)
}

// Tee fans one product out to several printers
func Tee(printers ...Printer) Printer {
	return PrinterFunc(func(v int64) {
		for _, p := range printers {
			if p != nil {
				p.Print(v)
			}
		}
	})
}
