package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/swali.go/pkg/buslog"
)

var (
	nickname = -1
	class    = -1
	outOnly  bool
	inOnly   bool
)

func init() {
	flag.IntVar(&nickname, "nick", nickname, "Only frames from this nickname.")
	flag.IntVar(&class, "class", class, "Only frames of this VSCP class.")
	flag.BoolVar(&outOnly, "out", outOnly, "Only frames sent by the capturing program.")
	flag.BoolVar(&inOnly, "in", inOnly, "Only frames received by the capturing program.")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTIONS] FILE\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func filter() (f buslog.Filter) {
	if nickname >= 0 {
		nick := uint8(nickname)
		f.Nickname = &nick
	}
	if class >= 0 {
		c := uint16(class)
		f.Class = &c
	}
	var dir buslog.Direction
	switch {
	case outOnly && !inOnly:
		dir = buslog.DirectionOut
		f.Direction = &dir
	case inOnly && !outOnly:
		dir = buslog.DirectionIn
		f.Direction = &dir
	}
	return
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	r, err := buslog.Open(flag.Arg(0), filter())
	if err != nil {
		glog.Fatal(err)
	}
	defer r.Close()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			glog.Fatal(err)
		}
		fmt.Println(rec)
	}
}
