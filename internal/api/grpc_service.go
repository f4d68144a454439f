package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"zapis/internal/domain"
	"zapis/internal/models"
	"zapis/internal/scheduling"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	schedulingServiceName  = "zapis.scheduling.v1.SchedulingService"
	checkAppointmentMethod = "/" + schedulingServiceName + "/CheckAppointment"
	checkLocationMethod    = "/" + schedulingServiceName + "/CheckLocation"
)

// SchedulingServer answers availability checks over gRPC. Requests and
// responses are google.protobuf.Struct values.
type SchedulingServer interface {
	CheckAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckLocation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var schedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: schedulingServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckAppointment", Handler: unaryHandler(checkAppointmentMethod, SchedulingServer.CheckAppointment)},
		{MethodName: "CheckLocation", Handler: unaryHandler(checkLocationMethod, SchedulingServer.CheckLocation)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zapis/scheduling/v1/scheduling.proto",
}

func RegisterSchedulingServer(s grpc.ServiceRegistrar, srv SchedulingServer) {
	s.RegisterService(&schedulingServiceDesc, srv)
}

type methodFunc func(SchedulingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call methodFunc) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchedulingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchedulingServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type schedulingService struct {
	schedules domain.ScheduleService
	bookings  domain.BookingService
}

func NewSchedulingService(schedules domain.ScheduleService, bookings domain.BookingService) SchedulingServer {
	return &schedulingService{schedules: schedules, bookings: bookings}
}

func (s *schedulingService) CheckAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	workerID, err := intField(req, "worker_id")
	if err != nil {
		return nil, err
	}
	serviceID, err := intField(req, "service_id")
	if err != nil {
		return nil, err
	}
	scheduledFor, err := models.ParseDateTime(stringField(req, "scheduled_for"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	verdict, err := s.bookings.CheckAppointment(ctx, workerID, serviceID, scheduledFor)
	if err != nil {
		return nil, grpcError(err)
	}
	return verdictStruct(verdict)
}

func (s *schedulingService) CheckLocation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	locationID, err := intField(req, "location_id")
	if err != nil {
		return nil, err
	}

	day, err := models.ParseWeekday(stringField(req, "day_of_week"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	start, err := models.ParseTimeOfDay(stringField(req, "start"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	end, err := models.ParseTimeOfDay(stringField(req, "end"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	verdict, err := s.schedules.CheckLocation(ctx, locationID, day, models.TimeWindow{Start: start, End: end})
	if err != nil {
		return nil, grpcError(err)
	}
	return verdictStruct(verdict)
}

func verdictStruct(v scheduling.Verdict) (*structpb.Struct, error) {
	fields := map[string]any{
		"verdict":   v.Kind.String(),
		"available": v.Available(),
	}
	if v.Detail != "" {
		fields["detail"] = v.Detail
	}
	return structpb.NewStruct(fields)
}

// stringField renders numbers without a fraction so "day_of_week": 0 works.
func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return fmt.Sprintf("%.0f", kind.NumberValue)
	default:
		return ""
	}
}

func intField(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue <= 0 || n.NumberValue != float64(int64(n.NumberValue)) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", name)
	}
	return int64(n.NumberValue), nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrTooManyAttempts):
		return status.Error(codes.ResourceExhausted, err.Error())
	case httpStatus(err) == http.StatusBadRequest:
		return status.Error(codes.InvalidArgument, err.Error())
	case httpStatus(err) == http.StatusConflict:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
