// Command calquery applies a calendar-query filter to iCalendar files and
// prints the paths of the ones that match. It's meant for debugging filter
// requests against real calendar data.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/emersion/go-ical"

	"github.com/cozy/go-caldav/caldav"
)

func main() {
	var filterPath string
	flag.StringVar(&filterPath, "filter", "", "path to a calendar-query filter XML document")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s -filter query.xml [files...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if filterPath == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(filterPath)
	if err != nil {
		log.Fatal(err)
	}
	cf, err := caldav.DecodeFilter(f)
	f.Close()
	if err != nil {
		log.Fatalf("failed to parse filter: %v", err)
	}
	query := &caldav.CalendarQuery{CompFilter: *cf}

	for _, path := range flag.Args() {
		ics, err := os.Open(path)
		if err != nil {
			log.Fatal(err)
		}
		cal, err := ical.NewDecoder(ics).Decode()
		ics.Close()
		if err != nil {
			log.Fatalf("failed to parse %v: %v", path, err)
		}

		co := caldav.CalendarObject{Path: path, Data: cal}
		ok, err := caldav.Match(query, &co)
		if err != nil {
			log.Fatalf("failed to match %v: %v", path, err)
		}
		if ok {
			fmt.Println(path)
		}
	}
}
