package service

import (
	"errors"
	"fmt"

	"CircuitEngine/internal/repository"
	"CircuitEngine/internal/settlement"

	"gorm.io/gorm"
)

// 业务错误类型，调用方用 errors.Is 判断；api 层据此映射 HTTP 状态码
var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrNotAMember        = errors.New("not a member of this circuit")
	ErrAlreadyCompleted  = errors.New("already completed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoParticipants    = errors.New("no participants")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyExists     = errors.New("already exists")
	ErrEventsPending     = errors.New("component events still pending")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound 把 gorm.ErrRecordNotFound 转为 ErrNotFound，其余错误原样包装
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("查询%s失败: %w", what, err)
}

// walletError 把仓储层的余额错误转为业务错误
func walletError(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: ledger entry", ErrAlreadyExists)
	}
	return err
}

func leadersError(err error) error {
	if errors.Is(err, settlement.ErrNoParticipants) {
		return ErrNoParticipants
	}
	return err
}
