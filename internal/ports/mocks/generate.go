//go:generate mockgen -source=../validator.go         -destination=./mock_validator.go         -package=mocks
//go:generate mockgen -source=../payment_processor.go -destination=./mock_payment_processor.go -package=mocks
//go:generate mockgen -source=../seat_reserver.go     -destination=./mock_seat_reserver.go     -package=mocks
//go:generate mockgen -source=../purchase_service.go  -destination=./mock_purchase_service.go  -package=mocks
//go:generate mockgen -source=../receipt_cache.go     -destination=./mock_receipt_cache.go     -package=mocks
//go:generate mockgen -source=../logger.go            -destination=./mock_logger.go            -package=mocks
//go:generate mockgen -source=../message_consumer.go  -destination=./mock_message_consumer.go  -package=mocks

package mocks
