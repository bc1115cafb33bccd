package src

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/koron/go-ssdp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SSDP : Announce the gateway and the WebDAV share via SSDP / DLNA
func SSDP() (err error) {

	if !Settings.SSDP || System.Flag.Info {
		return
	}

	showInfo(fmt.Sprintf("SSDP / DLNA:%t", Settings.SSDP))

	tracer := otel.Tracer("tvgate/ssdp")
	_, span := tracer.Start(context.Background(), "SSDP Init")
	defer span.End()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	var advertisers []*ssdp.Advertiser

	// Advertise the gateway itself
	ad, err := ssdp.Advertise(
		"upnp:rootdevice", // send as "ST"
		fmt.Sprintf("uuid:%s::upnp:rootdevice", System.DeviceID), // send as "USN"
		fmt.Sprintf("%s/web/", System.URLBase),                   // send as "LOCATION"
		System.AppName, // send as "SERVER"
		1800)           // send as "maxAge" in "CACHE-CONTROL"

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	advertisers = append(advertisers, ad)

	// Advertise the WebDAV share
	adDav, err := ssdp.Advertise(
		"urn:schemas-upnp-org:service:WebDAV:1", // send as "ST"
		fmt.Sprintf("uuid:%s::urn:schemas-upnp-org:service:WebDAV:1", System.DeviceID), // send as "USN"
		fmt.Sprintf("%s/dav/", System.URLBase), // send as "LOCATION"
		System.AppName,                         // send as "SERVER"
		1800)                                   // send as "maxAge" in "CACHE-CONTROL"

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ad.Close()
		return
	}
	advertisers = append(advertisers, adDav)

	// Debug SSDP
	if System.Flag.Debug == 3 {
		ssdp.Logger = log.New(os.Stderr, "[SSDP] ", log.LstdFlags)
	}

	go func(advs []*ssdp.Advertiser) {

		aliveTick := time.NewTicker(300 * time.Second)
		defer aliveTick.Stop()

		for {
			select {

			case <-aliveTick.C:
				_, spanAlive := tracer.Start(context.Background(), "SSDP Alive")

				for _, adv := range advs {

					if aliveErr := adv.Alive(); aliveErr != nil {
						spanAlive.RecordError(aliveErr)
						spanAlive.SetStatus(codes.Error, aliveErr.Error())
						ShowError(aliveErr, 0)
						ssdpShutdown(tracer, advs)
						spanAlive.End()
						return
					}
				}

				spanAlive.End()

			case <-quit:
				// The process is going down, the announcements have to be withdrawn
				ssdpShutdown(tracer, advs)
				return
			}
		}
	}(advertisers)

	return
}

// ssdpShutdown : Send Bye and close all advertisers
func ssdpShutdown(tracer trace.Tracer, advs []*ssdp.Advertiser) {

	_, span := tracer.Start(context.Background(), "SSDP Bye")
	defer span.End()

	for _, adv := range advs {

		if err := adv.Bye(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Printf("Error sending SSDP Bye: %v", err)
		}

		if err := adv.Close(); err != nil {
			span.RecordError(err)
			log.Printf("Error closing SSDP advertiser: %v", err)
		}
	}
}
